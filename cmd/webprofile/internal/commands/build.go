package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/webprofile/internal/assets"
	"github.com/wolfeidau/webprofile/internal/logger"
)

type BuildCmd struct {
	Metafile    string `help:"metafile name inside the output directory, empty to skip" default:"meta.json"`
	Manifest    string `help:"asset manifest name inside the output directory, empty to skip" default:"asset-manifest.json"`
	Precompress bool   `help:"write .gz and .zst siblings for text outputs" default:"false" env:"WEBPROFILE_PRECOMPRESS"`
	NoClean     bool   `help:"keep existing files in the output directory" default:"false"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(logger.Options{Debug: globals.Debug, JSON: globals.JSON})
	ctx = log.WithContext(ctx)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting build")

	p, err := globals.Profile.Resolve()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	cfg := assets.Config{
		MetafileName: c.Metafile,
		ManifestName: c.Manifest,
		Precompress:  c.Precompress,
		Clean:        !c.NoClean,
	}

	res, err := assets.New(p, cfg).Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	for name, entry := range res.Entries {
		log.Info().
			Str("entry", name).
			Str("script", entry.Script).
			Strs("chunks", entry.Chunks).
			Strs("styles", entry.Styles).
			Msg("Entry ready")
	}

	return nil
}
