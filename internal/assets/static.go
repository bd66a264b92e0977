package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/webprofile/internal/profile"
)

// copyStatic copies the directive's source directory into the output
// directory, skipping files matching an ignore pattern.
//
// Patterns are matched against both the slash separated relative path and
// the base name, so "*.html" skips html files at any depth.
func copyStatic(ctx context.Context, d profile.PluginDirective, outDir string) ([]string, error) {
	from := d.GetString("from")
	log := zerolog.Ctx(ctx)

	ignore, err := compileGlobs(d.GetStrings("ignore"))
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(from); errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("from", from).Msg("Static directory not found, nothing to copy")
		return nil, nil
	}

	var copied []string
	err = filepath.WalkDir(from, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(from, path)
		if err != nil {
			return err
		}
		if ignored(ignore, filepath.ToSlash(rel)) {
			log.Debug().Str("file", rel).Msg("Skipping ignored static file")
			return nil
		}

		target := filepath.Join(outDir, rel)
		if err := copyFile(path, target); err != nil {
			return err
		}
		copied = append(copied, target)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to copy static files: %w", err)
	}

	log.Info().Str("from", from).Int("files", len(copied)).Msg("Copied static files")
	return copied, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func ignored(patterns []glob.Glob, rel string) bool {
	base := filepath.Base(rel)
	for _, g := range patterns {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	//nolint:gosec // static files are served publicly
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
