package assets

import (
	"errors"
	"sync"

	"github.com/wolfeidau/webprofile/internal/profile"
)

var (
	// ErrBuildFailed indicates esbuild reported errors, nothing was written
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNotBuilt indicates metadata was requested before a successful build
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
	// ErrEntryPointNotFound indicates the entry point is missing from the metafile
	ErrEntryPointNotFound = errors.New("entrypoint not found in metadata")
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
	Bytes      int          `json:"bytes"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// EntryAssets lists the public URLs a page needs for one entry point.
type EntryAssets struct {
	Script  string
	Chunks  []string
	Styles  []string
	Outputs []string
}

// Result summarises a completed build.
type Result struct {
	Outputs      []string
	Entries      map[string]EntryAssets
	HTMLPath     string
	Copied       []string
	ManifestPath string
	Compressed   []string
	Warnings     int
}

// Pipeline turns a resolved build profile into an esbuild invocation and the
// post build steps its plugin directives ask for.
type Pipeline struct {
	profile  *profile.BuildProfile
	config   Config
	metadata *BuildMetadata
	mu       sync.RWMutex
}

// New creates a new asset pipeline for the given profile
func New(p *profile.BuildProfile, config Config) *Pipeline {
	return &Pipeline{
		profile: p,
		config:  config,
	}
}

// Profile returns the profile the pipeline builds.
func (p *Pipeline) Profile() *profile.BuildProfile {
	return p.profile
}
