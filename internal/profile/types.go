package profile

import (
	"fmt"
	"regexp"
)

// SourceMapMode selects how source maps are produced for a build.
type SourceMapMode string

const (
	SourceMapNone SourceMapMode = "none"
	SourceMapEval SourceMapMode = "eval"
	SourceMapFull SourceMapMode = "source-map"
)

// Handler classifies how an asset matched by a rule is processed.
type Handler string

const (
	HandlerScript          Handler = "script"
	HandlerInlineableImage Handler = "inlineable-image"
	HandlerFont            Handler = "font"
	HandlerStylesheet      Handler = "stylesheet"
)

// Inlineable reports whether rules with this handler may carry an inline threshold.
func (h Handler) Inlineable() bool {
	return h == HandlerInlineableImage || h == HandlerFont
}

// PluginKind tags a plugin directive, the bundler decides which real plugin runs for it.
type PluginKind string

const (
	PluginHTMLTemplate   PluginKind = "html-template"
	PluginTextExtraction PluginKind = "text-extraction"
	PluginDefineGlobals  PluginKind = "define-globals"
	PluginMinify         PluginKind = "minify"
	PluginCopyStatic     PluginKind = "copy-static"
	PluginDevNoopInProd  PluginKind = "dev-noop-in-prod"
)

// BuildProfile is the fully resolved configuration for one build invocation.
//
// A profile is never mutated after Resolve returns it; every call to Resolve
// allocates fresh maps and slices so callers never share state.
type BuildProfile struct {
	IsProduction          bool              `yaml:"isProduction" json:"isProduction"`
	Mode                  string            `yaml:"mode" json:"mode"`
	RootDir               string            `yaml:"rootDir" json:"rootDir"`
	EntryPoints           map[string]string `yaml:"entryPoints" json:"entryPoints"`
	OutputDir             string            `yaml:"outputDir" json:"outputDir"`
	PublicPath            string            `yaml:"publicPath" json:"publicPath"`
	FilenameTemplate      string            `yaml:"filenameTemplate" json:"filenameTemplate"`
	ChunkFilenameTemplate string            `yaml:"chunkFilenameTemplate" json:"chunkFilenameTemplate"`
	SourceMapMode         SourceMapMode     `yaml:"sourceMapMode" json:"sourceMapMode"`
	Resolution            ResolutionConfig  `yaml:"resolution" json:"resolution"`
	Rules                 []AssetRule       `yaml:"rules" json:"rules"`
	Plugins               []PluginDirective `yaml:"plugins" json:"plugins"`
	DevServer             DevServer         `yaml:"devServer" json:"devServer"`
}

// ResolutionConfig describes where bare module imports are searched for.
type ResolutionConfig struct {
	SearchRoots []string          `yaml:"searchRoots" json:"searchRoots"`
	Aliases     map[string]string `yaml:"aliases" json:"aliases"`
}

// AssetRule routes files matching Pattern to a Handler.
type AssetRule struct {
	Pattern              *regexp.Regexp `yaml:"pattern" json:"pattern"`
	Extensions           []string       `yaml:"extensions" json:"extensions"`
	Handler              Handler        `yaml:"handler" json:"handler"`
	InlineThresholdBytes *int           `yaml:"inlineThresholdBytes,omitempty" json:"inlineThresholdBytes,omitempty"`
	MimeType             string         `yaml:"mimeType,omitempty" json:"mimeType,omitempty"`
	Include              []string       `yaml:"include,omitempty" json:"include,omitempty"`
}

// Matches reports whether the file name is handled by this rule.
func (r AssetRule) Matches(name string) bool {
	return r.Pattern != nil && r.Pattern.MatchString(name)
}

// Inline reports whether a file of the given size should be embedded in the bundle.
func (r AssetRule) Inline(size int64) bool {
	return r.InlineThresholdBytes != nil && size < int64(*r.InlineThresholdBytes)
}

// PluginDirective asks the bundler to activate the plugin named by Kind.
type PluginDirective struct {
	Kind   PluginKind     `yaml:"kind" json:"kind"`
	Params map[string]any `yaml:"params" json:"params"`
}

// GetString returns the param as a string, or "" if absent.
func (d PluginDirective) GetString(key string) string {
	s, _ := d.Params[key].(string)
	return s
}

// GetBool returns the param as a bool, or false if absent.
func (d PluginDirective) GetBool(key string) bool {
	b, _ := d.Params[key].(bool)
	return b
}

// GetStrings returns the param as a string slice.
func (d PluginDirective) GetStrings(key string) []string {
	v, _ := d.Params[key].([]string)
	return v
}

// GetStringMap returns the param as a map of strings.
func (d PluginDirective) GetStringMap(key string) map[string]string {
	v, _ := d.Params[key].(map[string]string)
	return v
}

// DevServer describes the local development server, it is data only.
type DevServer struct {
	ContentBase string `yaml:"contentBase" json:"contentBase"`
	Host        string `yaml:"host" json:"host"`
	Port        int    `yaml:"port" json:"port"`
	Stats       string `yaml:"stats" json:"stats"`
}

// Addr returns host:port of the development server.
func (d DevServer) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}
