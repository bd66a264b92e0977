package assets

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/webprofile/internal/profile"
)

// aliasPlugin rewrites imports whose first path segment is an alias name to
// the aliased directory and lets esbuild resolve the result.
func aliasPlugin(aliases map[string]string) api.Plugin {
	names := slices.Sorted(maps.Keys(aliases))
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, regexp.QuoteMeta(name))
	}
	filter := fmt.Sprintf(`^(%s)(/.*)?$`, strings.Join(quoted, "|"))

	return api.Plugin{
		Name: "profile-alias",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				target, ok := matchAlias(aliases, args.Path)
				if !ok {
					return api.OnResolveResult{}, nil
				}

				result := build.Resolve(target, api.ResolveOptions{
					Importer:   args.Importer,
					ResolveDir: args.ResolveDir,
					Kind:       args.Kind,
				})
				if len(result.Errors) > 0 {
					return api.OnResolveResult{Errors: result.Errors}, nil
				}

				return api.OnResolveResult{
					Path:     result.Path,
					External: result.External,
				}, nil
			})
		},
	}
}

func matchAlias(aliases map[string]string, importPath string) (string, bool) {
	name, rest, _ := strings.Cut(importPath, "/")
	target, ok := aliases[name]
	if !ok {
		return "", false
	}
	if rest == "" {
		return target, true
	}
	return filepath.Join(target, filepath.FromSlash(rest)), true
}

// inlinePlugin embeds images and fonts smaller than their rule threshold as
// data URLs, larger files are emitted next to the bundle.
func inlinePlugin(rules []profile.AssetRule) api.Plugin {
	return api.Plugin{
		Name: "profile-inline-threshold",
		Setup: func(build api.PluginBuild) {
			for _, rule := range rules {
				build.OnLoad(api.OnLoadOptions{Filter: rule.Pattern.String(), Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					contents := string(data)
					return api.OnLoadResult{
						Contents: &contents,
						Loader:   inlineLoader(rule, int64(len(data))),
					}, nil
				})
			}
		},
	}
}

func inlineLoader(rule profile.AssetRule, size int64) api.Loader {
	if rule.Inline(size) {
		return api.LoaderDataURL
	}
	return api.LoaderFile
}

// styleInjectPlugin turns stylesheets into modules which append a style
// element at runtime, used when text extraction is disabled. Each stylesheet
// is bundled first so its url() and @import references are resolved.
func styleInjectPlugin(rule profile.AssetRule, styleOpts api.BuildOptions, emitted *emittedFiles) api.Plugin {
	return api.Plugin{
		Name: "profile-style-inject",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: rule.Pattern.String(), Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				sub := styleOpts
				sub.EntryPoints = []string{args.Path}

				result := api.Build(sub)
				if len(result.Errors) > 0 {
					return api.OnLoadResult{Errors: result.Errors, Warnings: result.Warnings}, nil
				}

				var css []byte
				for _, file := range result.OutputFiles {
					if strings.HasSuffix(file.Path, ".css") {
						css = file.Contents
						continue
					}
					emitted.add(file.Path, file.Contents)
				}

				contents, err := styleModule(css)
				if err != nil {
					return api.OnLoadResult{}, err
				}

				return api.OnLoadResult{
					Contents:   &contents,
					Loader:     api.LoaderJS,
					ResolveDir: filepath.Dir(args.Path),
					Warnings:   result.Warnings,
				}, nil
			})
		},
	}
}

func styleModule(css []byte) (string, error) {
	text, err := json.Marshal(string(css))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`const style = document.createElement("style");
style.textContent = %s;
document.head.appendChild(style);
export default style;
`, text), nil
}

// emittedFiles collects assets written by nested stylesheet builds, OnLoad
// callbacks run concurrently.
type emittedFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (e *emittedFiles) add(path string, contents []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		e.files = map[string][]byte{}
	}
	e.files[path] = contents
}

// sorted returns the collected paths in a stable order.
func (e *emittedFiles) sorted() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Sorted(maps.Keys(e.files))
}

func (e *emittedFiles) contents(path string) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.files[path]
}
