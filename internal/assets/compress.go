package assets

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

// minCompressSize skips files where the framing overhead outweighs the gain.
const minCompressSize = 1024

var compressibleExts = map[string]bool{
	".js":   true,
	".css":  true,
	".html": true,
	".svg":  true,
	".json": true,
	".map":  true,
	".txt":  true,
}

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".zst")
}

// precompress writes .gz and .zst siblings for text outputs so a static file
// server can hand out pre-encoded responses.
func precompress(ctx context.Context, outDir string) ([]string, error) {
	log := zerolog.Ctx(ctx)

	var written []string
	err := filepath.WalkDir(outDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || isCompressed(path) || !compressibleExts[filepath.Ext(path)] {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		if info.Size() < minCompressSize {
			return nil
		}

		gz, err := compressFile(path, ".gz", func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriterLevel(w, gzip.BestCompression)
		})
		if err != nil {
			return err
		}

		zst, err := compressFile(path, ".zst", func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		})
		if err != nil {
			return err
		}

		written = append(written, gz, zst)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to precompress outputs: %w", err)
	}

	log.Info().Int("files", len(written)).Msg("Precompressed outputs")
	return written, nil
}

func compressFile(path, ext string, newWriter func(io.Writer) (io.WriteCloser, error)) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	target := path + ext
	//nolint:gosec // build outputs are served publicly
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	enc, err := newWriter(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create encoder: %w", err)
	}

	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		os.Remove(target) // Clean up partial file
		return "", fmt.Errorf("failed to compress %s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to flush %s: %w", target, err)
	}

	return target, dst.Close()
}
