package assets

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/crc64nvme"
	"github.com/wolfeidau/webprofile/internal/profile"
)

// Manifest describes every file in the output directory after a build.
type Manifest struct {
	BuildID     string                  `json:"buildId"`
	Mode        string                  `json:"mode"`
	PublicPath  string                  `json:"publicPath"`
	Entrypoints map[string][]string     `json:"entrypoints"`
	Files       map[string]ManifestFile `json:"files"`
}

// ManifestFile records the public URL, size and CRC64-NVME checksum of an output.
type ManifestFile struct {
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	Checksum string `json:"crc64nvme"`
}

func writeManifest(path string, bp *profile.BuildProfile, entries map[string]EntryAssets) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate build id: %w", err)
	}

	manifest := Manifest{
		BuildID:     id.String(),
		Mode:        bp.Mode,
		PublicPath:  bp.PublicPath,
		Entrypoints: map[string][]string{},
		Files:       map[string]ManifestFile{},
	}

	for name, assets := range entries {
		urls := append([]string{assets.Script}, assets.Chunks...)
		manifest.Entrypoints[name] = append(urls, assets.Styles...)
	}

	err = filepath.WalkDir(bp.OutputDir, func(file string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || file == path || isCompressed(file) {
			return nil
		}

		rel, err := filepath.Rel(bp.OutputDir, file)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		size, sum, err := checksum(file)
		if err != nil {
			return err
		}

		manifest.Files[rel] = ManifestFile{
			URL:      strings.TrimSuffix(bp.PublicPath, "/") + "/" + rel,
			Size:     size,
			Checksum: fmt.Sprintf("%016x", sum),
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index outputs: %w", err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// ReadManifest loads a manifest written by a previous build.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}

func checksum(path string) (int64, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	h := crc64nvme.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, 0, err
	}
	return n, h.Sum64(), nil
}
