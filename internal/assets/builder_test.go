package assets

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/webprofile/internal/profile"
)

const testTemplate = `<!DOCTYPE html>
<html>
<head><title>webprofile</title></head>
<body><div id="root"></div></body>
</html>
`

// newTestProject lays out a small front end under a temp root
func newTestProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string][]byte{
		"src/app/app.js": []byte(`import { greet } from "components/greet";
import "styles/main.css";
import logo from "./logo.png";
import banner from "./banner.png";

console.log(greet("world"), logo, banner, process.env.NODE_ENV);
`),
		"src/app/components/greet.js":  []byte("export function greet(name) {\n  return \"hello \" + name;\n}\n"),
		"src/app/styles/main.css":      []byte("body {\n  color: rebeccapurple;\n}\n"),
		"src/app/logo.png":             bytes.Repeat([]byte{0x89}, 100),
		"src/app/banner.png":           bytes.Repeat([]byte{0x42}, 20000),
		"src/public/index.html":        []byte(testTemplate),
		"src/public/other.html":        []byte("<p>ignored</p>"),
		"src/public/service-worker.js": []byte("self.addEventListener('fetch', () => {});"),
		"src/public/robots.txt":        []byte("User-agent: *\n"),
		"src/public/img/favicon.txt":   []byte("icon"),
	}

	writeFiles(t, root, files)

	return root
}

func writeFiles(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, data, 0o600))
	}
}

func resolveProfile(t *testing.T, production bool, root string) *profile.BuildProfile {
	t.Helper()
	p, err := profile.Resolve(production, root)
	require.NoError(t, err)
	return p
}

func TestPipeline_BuildProduction(t *testing.T) {
	root := newTestProject(t)
	bp := resolveProfile(t, true, root)
	dist := filepath.Join(root, "dist")

	pipeline := New(bp, DefaultConfig())
	res, err := pipeline.Build(context.Background())
	require.NoError(t, err)

	app, ok := res.Entries["app"]
	require.True(t, ok)
	require.Regexp(t, regexp.MustCompile(`^/app\.[A-Za-z0-9]+\.js$`), app.Script)
	require.Len(t, app.Styles, 1)
	require.Regexp(t, regexp.MustCompile(`^/app\.[A-Za-z0-9]+\.css$`), app.Styles[0])

	script, err := os.ReadFile(filepath.Join(dist, strings.TrimPrefix(app.Script, "/")))
	require.NoError(t, err)
	assert.Contains(t, string(script), "data:image/png;base64,")
	assert.Contains(t, string(script), "hello ")
	assert.NotContains(t, string(script), "process.env.NODE_ENV")

	_, err = os.Stat(filepath.Join(dist, strings.TrimPrefix(app.Script, "/")+".map"))
	require.NoError(t, err, "linked source map should be written")

	banners, err := filepath.Glob(filepath.Join(dist, "assets", "banner.*.png"))
	require.NoError(t, err)
	require.Len(t, banners, 1, "large images are emitted as files")

	page, err := os.ReadFile(res.HTMLPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dist, "index.html"), res.HTMLPath)
	assert.Contains(t, string(page), `<script type="module" src="`+app.Script+`"></script>`)
	assert.Contains(t, string(page), `<link rel="stylesheet" href="`+app.Styles[0]+`"/>`)
	assert.Contains(t, string(page), `<div id="root">`)

	require.FileExists(t, filepath.Join(dist, "robots.txt"))
	require.FileExists(t, filepath.Join(dist, "img", "favicon.txt"))
	require.NoFileExists(t, filepath.Join(dist, "service-worker.js"))
	require.NoFileExists(t, filepath.Join(dist, "other.html"))
	require.Len(t, res.Copied, 2)

	manifest, err := ReadManifest(res.ManifestPath)
	require.NoError(t, err)
	assert.NotEmpty(t, manifest.BuildID)
	assert.Equal(t, "production", manifest.Mode)
	assert.Equal(t, "/", manifest.PublicPath)
	assert.Contains(t, manifest.Entrypoints["app"], app.Script)
	require.Contains(t, manifest.Files, "robots.txt")
	assert.Equal(t, "/robots.txt", manifest.Files["robots.txt"].URL)
	assert.Equal(t, int64(len("User-agent: *\n")), manifest.Files["robots.txt"].Size)
	assert.Len(t, manifest.Files["robots.txt"].Checksum, 16)
	assert.Contains(t, manifest.Files, "meta.json")
	assert.NotContains(t, manifest.Files, "asset-manifest.json")

	scripts, entry, err := pipeline.LoadScripts("app")
	require.NoError(t, err)
	require.Equal(t, app.Script, entry)
	require.Equal(t, app.Script, scripts[0])
}

func TestPipeline_BuildDevelopment(t *testing.T) {
	root := newTestProject(t)
	bp := resolveProfile(t, false, root)
	dist := filepath.Join(root, "dist")

	res, err := New(bp, DefaultConfig()).Build(context.Background())
	require.NoError(t, err)

	app := res.Entries["app"]
	require.Equal(t, "http://localhost:5001/app.bundle.js", app.Script)
	require.Empty(t, app.Styles, "stylesheets are injected at runtime in development")

	script, err := os.ReadFile(filepath.Join(dist, "app.bundle.js"))
	require.NoError(t, err)
	assert.Contains(t, string(script), `document.createElement("style")`)
	assert.Contains(t, string(script), "rebeccapurple")
	assert.Contains(t, string(script), "sourceMappingURL=data:")

	cssFiles, err := filepath.Glob(filepath.Join(dist, "*.css"))
	require.NoError(t, err)
	require.Empty(t, cssFiles)

	require.NoFileExists(t, filepath.Join(dist, "robots.txt"), "static files are only copied in production")
	require.Empty(t, res.Copied)

	page, err := os.ReadFile(filepath.Join(dist, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `src="http://localhost:5001/app.bundle.js"`)
}

func TestPipeline_BuildDevelopmentSharedChunks(t *testing.T) {
	root := newTestProject(t)
	writeFiles(t, root, map[string][]byte{
		"src/app/app.js": []byte(`import one from "./one/logo.png";
import two from "./two/logo.png";

console.log(one, two);
import("./a.js");
import("./b.js");
import("./c.js");
`),
		"src/app/a.js":         []byte("import { x } from \"./x.js\";\nimport { y } from \"./y.js\";\nexport default x + y;\n"),
		"src/app/b.js":         []byte("import { x } from \"./x.js\";\nexport default x;\n"),
		"src/app/c.js":         []byte("import { y } from \"./y.js\";\nexport default y;\n"),
		"src/app/x.js":         []byte("export const x = \"shared-x\";\n"),
		"src/app/y.js":         []byte("export const y = \"shared-y\";\n"),
		"src/app/one/logo.png": bytes.Repeat([]byte{0x01}, 20000),
		"src/app/two/logo.png": bytes.Repeat([]byte{0x02}, 20000),
	})
	bp := resolveProfile(t, false, root)
	dist := filepath.Join(root, "dist")

	_, err := New(bp, DefaultConfig()).Build(context.Background())
	require.NoError(t, err)

	shared, err := filepath.Glob(filepath.Join(dist, "chunks", "chunk.bundle-*.js"))
	require.NoError(t, err)
	require.Len(t, shared, 2, "each shared chunk gets its own file")

	logos, err := filepath.Glob(filepath.Join(dist, "assets", "logo.*.png"))
	require.NoError(t, err)
	require.Len(t, logos, 2, "same named images do not overwrite each other")
}

func TestPipeline_BuildDevelopmentStylesheetURLs(t *testing.T) {
	root := newTestProject(t)
	writeFiles(t, root, map[string][]byte{
		"src/app/styles/main.css":  []byte("@import \"./reset.css\";\n\nbody {\n  background: url(./bg.png);\n}\n\n.hero {\n  background: url(./hero.png);\n}\n"),
		"src/app/styles/reset.css": []byte("html {\n  margin: 0;\n}\n"),
		"src/app/styles/bg.png":    bytes.Repeat([]byte{0x89}, 7),
		"src/app/styles/hero.png":  bytes.Repeat([]byte{0x42}, 20000),
	})
	bp := resolveProfile(t, false, root)
	dist := filepath.Join(root, "dist")

	res, err := New(bp, DefaultConfig()).Build(context.Background())
	require.NoError(t, err)

	script, err := os.ReadFile(filepath.Join(dist, "app.bundle.js"))
	require.NoError(t, err)
	assert.Contains(t, string(script), `document.createElement("style")`)
	assert.Contains(t, string(script), "data:image/png;base64,", "small images in stylesheets are inlined")
	assert.Contains(t, string(script), "margin: 0", "imported stylesheets are bundled")
	assert.Contains(t, string(script), "http://localhost:5001/assets/hero.")
	assert.NotContains(t, string(script), "url(./bg.png)")
	assert.NotContains(t, string(script), "@import")

	heroes, err := filepath.Glob(filepath.Join(dist, "assets", "hero.*.png"))
	require.NoError(t, err)
	require.Len(t, heroes, 1, "large images referenced from stylesheets are emitted")
	assert.Contains(t, res.Outputs, heroes[0])

	cssFiles, err := filepath.Glob(filepath.Join(dist, "*.css"))
	require.NoError(t, err)
	require.Empty(t, cssFiles)
}

func TestPipeline_BuildErrorsWriteNothing(t *testing.T) {
	root := newTestProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app", "app.js"), []byte("export const = ;"), 0o600))

	bp := resolveProfile(t, true, root)

	res, err := New(bp, DefaultConfig()).Build(context.Background())
	require.ErrorIs(t, err, ErrBuildFailed)
	require.Nil(t, res)
	require.NoDirExists(t, filepath.Join(root, "dist"))
}

func TestPipeline_BuildMissingTemplate(t *testing.T) {
	root := newTestProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "src", "public", "index.html")))

	bp := resolveProfile(t, true, root)

	_, err := New(bp, DefaultConfig()).Build(context.Background())
	var cfgErr *profile.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.ErrorIs(t, err, profile.ErrTemplateMissing)
}

func TestPipeline_BuildPrecompress(t *testing.T) {
	root := newTestProject(t)
	bp := resolveProfile(t, false, root)

	cfg := DefaultConfig()
	cfg.Precompress = true

	res, err := New(bp, cfg).Build(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.Compressed)

	require.FileExists(t, filepath.Join(root, "dist", "app.bundle.js.gz"))
	require.FileExists(t, filepath.Join(root, "dist", "app.bundle.js.zst"))
}

func TestPipeline_LoadScriptsBeforeBuild(t *testing.T) {
	root := newTestProject(t)
	bp := resolveProfile(t, true, root)

	_, _, err := New(bp, DefaultConfig()).LoadScripts("app")
	require.ErrorIs(t, err, ErrNotBuilt)
}

func TestPipeline_CancelledContext(t *testing.T) {
	root := newTestProject(t)
	bp := resolveProfile(t, true, root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(bp, DefaultConfig()).Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NoDirExists(t, filepath.Join(root, "dist"))
}
