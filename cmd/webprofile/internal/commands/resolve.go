package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/webprofile/internal/logger"
	"github.com/wolfeidau/webprofile/internal/profile"
	"gopkg.in/yaml.v3"
)

type ResolveCmd struct {
	Format string `help:"output format (yaml or json)" default:"yaml" enum:"yaml,json"`
	Output string `help:"write the profile to this file instead of stdout" default:"" type:"path"`
}

func (c *ResolveCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(logger.Options{Debug: globals.Debug, JSON: globals.JSON})

	p, err := globals.Profile.Resolve()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	log.Debug().Str("mode", p.Mode).Str("root", p.RootDir).Msg("Resolved profile")

	if c.Output == "" {
		return writeProfile(os.Stdout, p, c.Format)
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := writeProfile(f, p, c.Format); err != nil {
		return err
	}

	log.Info().Str("file", c.Output).Msg("Wrote profile")
	return f.Close()
}

func writeProfile(w io.Writer, p *profile.BuildProfile, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
