// Package profile resolves the build profile of a web front end for either a
// production or a development invocation.
//
// A profile is a plain value describing entry points, output naming, module
// resolution, asset rules and plugin directives. It carries no behaviour of
// its own, the bundler adapter in internal/assets interprets it.
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Plugin returns the first directive of the given kind.
func (p *BuildProfile) Plugin(kind PluginKind) (PluginDirective, bool) {
	for _, d := range p.Plugins {
		if d.Kind == kind {
			return d, true
		}
	}
	return PluginDirective{}, false
}

// PluginsOf returns every directive of the given kind in declaration order.
func (p *BuildProfile) PluginsOf(kind PluginKind) []PluginDirective {
	var out []PluginDirective
	for _, d := range p.Plugins {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// TemplatePath returns the html template named by the html-template directive.
func (p *BuildProfile) TemplatePath() string {
	d, ok := p.Plugin(PluginHTMLTemplate)
	if !ok {
		return ""
	}
	return d.GetString("template")
}

// RequireTemplate fails with a ConfigError when the html template is absent.
func (p *BuildProfile) RequireTemplate() error {
	path := p.TemplatePath()
	if path == "" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return configError(path, ErrTemplateMissing)
		}
		return configError(path, err)
	}
	if info.IsDir() {
		return configError(path, ErrTemplateMissing)
	}
	return nil
}

// Validate checks the invariants every resolved profile holds.
func (p *BuildProfile) Validate() error {
	if len(p.EntryPoints) == 0 {
		return fmt.Errorf("%w: no entry points", ErrInvalidProfile)
	}

	want := cond(p.IsProduction, SourceMapFull, SourceMapEval)
	if p.SourceMapMode != want {
		return fmt.Errorf("%w: source map mode %q does not match production=%t", ErrInvalidProfile, p.SourceMapMode, p.IsProduction)
	}

	if p.FilenameTemplate == "" {
		return fmt.Errorf("%w: missing filename template", ErrInvalidProfile)
	}

	for _, rule := range p.Rules {
		if rule.Pattern == nil {
			return fmt.Errorf("%w: %s rule has no pattern", ErrInvalidProfile, rule.Handler)
		}
		if rule.InlineThresholdBytes != nil && !rule.Handler.Inlineable() {
			return fmt.Errorf("%w: %s rule %s cannot carry an inline threshold", ErrInvalidProfile, rule.Handler, rule.Pattern)
		}
	}

	return nil
}
