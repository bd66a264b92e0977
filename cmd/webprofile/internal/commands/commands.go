package commands

import (
	"fmt"
	"path/filepath"

	"github.com/wolfeidau/webprofile/internal/profile"
)

type Globals struct {
	Debug   bool
	JSON    bool
	Version string
	Profile ProfileFlags
}

// ProfileFlags select which build profile is resolved
type ProfileFlags struct {
	Root           string `help:"project root directory" default:"." env:"WEBPROFILE_ROOT"`
	LifecycleEvent string `help:"package manager lifecycle event, \"build\" selects production" default:"" env:"npm_lifecycle_event"`
	Mode           string `help:"force a profile instead of using the lifecycle event" default:"auto" enum:"auto,production,development" env:"WEBPROFILE_MODE"`
	LegacyDefines  bool   `help:"publish production defines under process.ennv as older builds did" default:"false" env:"WEBPROFILE_LEGACY_DEFINES"`
}

// Production reports whether the production profile is selected
func (f ProfileFlags) Production() bool {
	switch f.Mode {
	case "production":
		return true
	case "development":
		return false
	default:
		return profile.ModeFromLifecycleEvent(f.LifecycleEvent)
	}
}

// Resolve resolves the selected profile against the absolute project root
func (f ProfileFlags) Resolve() (*profile.BuildProfile, error) {
	root := f.Root
	if root == "" {
		root = "."
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	var opts []profile.Option
	if f.LegacyDefines {
		opts = append(opts, profile.WithLegacyDefineKeys())
	}

	return profile.Resolve(f.Production(), abs, opts...)
}
