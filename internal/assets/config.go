package assets

type Config struct {
	// Metafile name, written inside the profile output directory
	MetafileName string
	// Manifest name, written inside the profile output directory
	ManifestName string
	// Whether to write .gz and .zst siblings for text outputs
	Precompress bool
	// Whether to empty the output directory before writing
	Clean bool
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		MetafileName: "meta.json",
		ManifestName: "asset-manifest.json",
		Precompress:  false,
		Clean:        true,
	}
}
