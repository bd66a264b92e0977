package profile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

const (
	// InlineThresholdBytes is the size below which images and fonts are embedded.
	InlineThresholdBytes = 10000

	// DevHost and DevPort locate the development server.
	DevHost = "localhost"
	DevPort = 5001

	productionFilename  = "[name].[hash].js"
	developmentFilename = "[name].bundle.js"

	productionCSSFilename  = "[name].[hash].css"
	developmentCSSFilename = "[name].bundle.css"

	templateName      = "index.html"
	serviceWorkerName = "service-worker.js"
)

var (
	aliasDirs = []string{"components", "libs", "services", "styles", "tags", "views", "constants", "forms"}

	scriptPattern = regexp.MustCompile(`\.jsx?$`)
	imagePattern  = regexp.MustCompile(`\.(png|jpg|jpeg)$`)
	svgPattern    = regexp.MustCompile(`\.svg$`)
	woffPattern   = regexp.MustCompile(`\.woff$`)
	woff2Pattern  = regexp.MustCompile(`\.woff2$`)
	ttfPattern    = regexp.MustCompile(`\.ttf$`)
	cssPattern    = regexp.MustCompile(`\.css$`)
)

type options struct {
	legacyDefineKeys bool
}

// Option tweaks how a profile is resolved.
type Option func(*options)

// WithLegacyDefineKeys reproduces the historical production define keys which
// were published under process.ennv instead of process.env.
func WithLegacyDefineKeys() Option {
	return func(o *options) {
		o.legacyDefineKeys = true
	}
}

// ModeFromLifecycleEvent maps the package manager lifecycle event to the
// production flag, only "build" selects production.
func ModeFromLifecycleEvent(event string) bool {
	return event == "build"
}

// Resolve builds the profile for a production or development invocation rooted at rootDir.
//
// The only I/O is a check that rootDir is a readable directory, everything
// else is derived from the two inputs.
func Resolve(isProduction bool, rootDir string, opts ...Option) (*BuildProfile, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	rootDir = filepath.Clean(rootDir)
	if err := checkRoot(rootDir); err != nil {
		return nil, err
	}

	appPath := filepath.Join(rootDir, "src", "app")
	distPath := filepath.Join(rootDir, "dist")
	publicDir := filepath.Join(rootDir, "src", "public")

	p := &BuildProfile{
		IsProduction: isProduction,
		Mode:         cond(isProduction, "production", "development"),
		RootDir:      rootDir,
		EntryPoints: map[string]string{
			"app": filepath.Join(appPath, "app.js"),
		},
		OutputDir:             distPath,
		PublicPath:            cond(isProduction, "/", fmt.Sprintf("http://%s:%d/", DevHost, DevPort)),
		FilenameTemplate:      cond(isProduction, productionFilename, developmentFilename),
		ChunkFilenameTemplate: cond(isProduction, productionFilename, developmentFilename),
		SourceMapMode:         cond(isProduction, SourceMapFull, SourceMapEval),
		Resolution:            resolution(rootDir, appPath),
		Rules:                 rules(appPath),
		Plugins:               plugins(isProduction, publicDir, o),
		DevServer: DevServer{
			ContentBase: publicDir,
			Host:        DevHost,
			Port:        DevPort,
			Stats:       "minimal",
		},
	}

	return p, nil
}

func checkRoot(rootDir string) error {
	info, err := os.Stat(rootDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return configError(rootDir, ErrRootNotFound)
		}
		return configError(rootDir, fmt.Errorf("%w: %w", ErrRootUnreadable, err))
	}
	if !info.IsDir() {
		return configError(rootDir, ErrRootNotDir)
	}

	f, err := os.Open(rootDir)
	if err != nil {
		return configError(rootDir, fmt.Errorf("%w: %w", ErrRootUnreadable, err))
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return configError(rootDir, fmt.Errorf("%w: %w", ErrRootUnreadable, err))
	}
	return nil
}

func resolution(rootDir, appPath string) ResolutionConfig {
	aliases := map[string]string{
		"root": appPath,
	}
	for _, name := range aliasDirs {
		aliases[name] = filepath.Join(appPath, name)
	}

	return ResolutionConfig{
		SearchRoots: []string{filepath.Join(rootDir, "node_modules"), "node_modules", appPath},
		Aliases:     aliases,
	}
}

func rules(appPath string) []AssetRule {
	return []AssetRule{
		{Pattern: scriptPattern, Extensions: []string{".js", ".jsx"}, Handler: HandlerScript, Include: []string{appPath}},
		{Pattern: imagePattern, Extensions: []string{".png", ".jpg", ".jpeg"}, Handler: HandlerInlineableImage, InlineThresholdBytes: threshold()},
		{Pattern: svgPattern, Extensions: []string{".svg"}, Handler: HandlerInlineableImage, InlineThresholdBytes: threshold(), MimeType: "image/svg+xml"},
		{Pattern: woffPattern, Extensions: []string{".woff"}, Handler: HandlerFont, InlineThresholdBytes: threshold(), MimeType: "application/font-woff"},
		{Pattern: woff2Pattern, Extensions: []string{".woff2"}, Handler: HandlerFont, InlineThresholdBytes: threshold(), MimeType: "application/font-woff2"},
		{Pattern: ttfPattern, Extensions: []string{".ttf"}, Handler: HandlerFont, InlineThresholdBytes: threshold(), MimeType: "application/x-font-truetype"},
		{Pattern: cssPattern, Extensions: []string{".css"}, Handler: HandlerStylesheet},
	}
}

func plugins(isProduction bool, publicDir string, o *options) []PluginDirective {
	directives := []PluginDirective{
		{
			Kind: PluginHTMLTemplate,
			Params: map[string]any{
				"template": filepath.Join(publicDir, templateName),
				"inject":   "body",
			},
		},
		{
			Kind: PluginTextExtraction,
			Params: map[string]any{
				"filename": cond(isProduction, productionCSSFilename, developmentCSSFilename),
				"disable":  !isProduction,
			},
		},
	}

	if !isProduction {
		return append(directives, PluginDirective{
			Kind: PluginDefineGlobals,
			Params: map[string]any{
				"values": map[string]string{
					"process.env.NODE_ENV": strconv.Quote("development"),
				},
			},
		})
	}

	envKey := "process.env"
	if o.legacyDefineKeys {
		envKey = "process.ennv"
	}

	return append(directives,
		PluginDirective{
			Kind: PluginDevNoopInProd,
			Params: map[string]any{
				"noEmitOnErrors": true,
				"minimize":       true,
				"debug":          false,
			},
		},
		PluginDirective{
			Kind: PluginDefineGlobals,
			Params: map[string]any{
				"values": map[string]string{
					"process.env.NODE_ENV":     strconv.Quote("production"),
					envKey + ".BASE_URL":       strconv.Quote("/api"),
					envKey + ".IMAGE_BASE_URL": strconv.Quote("/static/"),
				},
			},
		},
		PluginDirective{
			Kind: PluginMinify,
			Params: map[string]any{
				"compress":    true,
				"dropConsole": false,
				"warnings":    false,
			},
		},
		PluginDirective{
			Kind: PluginCopyStatic,
			Params: map[string]any{
				"from":   publicDir,
				"ignore": []string{"*.html", serviceWorkerName},
			},
		},
	)
}

func threshold() *int {
	n := InlineThresholdBytes
	return &n
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
