package profile

import (
	"errors"
	"fmt"
)

var (
	// ErrRootNotFound indicates the project root directory does not exist
	ErrRootNotFound = errors.New("project root not found")
	// ErrRootNotDir indicates the project root exists but is not a directory
	ErrRootNotDir = errors.New("project root is not a directory")
	// ErrRootUnreadable indicates the project root cannot be listed
	ErrRootUnreadable = errors.New("project root is unreadable")
	// ErrTemplateMissing indicates the html template of the profile is absent
	ErrTemplateMissing = errors.New("html template not found")
	// ErrInvalidProfile indicates a profile violates one of its invariants
	ErrInvalidProfile = errors.New("invalid build profile")
)

// ConfigError reports a build configuration that cannot be resolved.
// The build must halt, there is no partial profile to fall back on.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(path string, err error) error {
	return &ConfigError{Path: path, Err: err}
}
