package assets

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/webprofile/internal/profile"
)

// Options translates the profile into esbuild build options.
//
// Output is never written by esbuild itself, Build writes files only after
// esbuild reports no errors.
func (p *Pipeline) Options() (api.BuildOptions, error) {
	opts, _, err := p.buildOptions()
	return opts, err
}

// buildOptions also returns the sink collecting files emitted while injected
// stylesheets are bundled, Build writes them next to the main outputs.
func (p *Pipeline) buildOptions() (api.BuildOptions, *emittedFiles, error) {
	bp := p.profile

	if !filepath.IsAbs(bp.RootDir) {
		return api.BuildOptions{}, nil, fmt.Errorf("root directory must be absolute: %s", bp.RootDir)
	}
	if len(bp.EntryPoints) == 0 {
		return api.BuildOptions{}, nil, errors.New("no entry points found")
	}

	extractCSS := true
	if d, ok := bp.Plugin(profile.PluginTextExtraction); ok {
		extractCSS = !d.GetBool("disable")
	}

	opts := api.BuildOptions{
		EntryPointsAdvanced: entryPoints(bp.EntryPoints),
		AbsWorkingDir:       bp.RootDir,
		Outdir:              bp.OutputDir,
		PublicPath:          bp.PublicPath,
		EntryNames:          nameTemplate(bp.FilenameTemplate),
		ChunkNames:          chunkNames(bp.ChunkFilenameTemplate),
		AssetNames:          "assets/[name].[hash]",
		Bundle:              true,
		Splitting:           true,
		Write:               false,
		Metafile:            true,
		JSX:                 api.JSXAutomatic,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		TreeShaking:         api.TreeShakingTrue,
		Sourcemap:           sourceMap(bp.SourceMapMode),
		NodePaths:           nodePaths(bp.Resolution.SearchRoots),
		Loader:              loaders(bp.Rules, extractCSS),
		LogLevel:            api.LogLevelSilent,
	}

	var plugins []api.Plugin
	if len(bp.Resolution.Aliases) > 0 {
		plugins = append(plugins, aliasPlugin(bp.Resolution.Aliases))
	}
	if inline := inlineRules(bp.Rules); len(inline) > 0 {
		plugins = append(plugins, inlinePlugin(inline))
	}

	for _, d := range bp.Plugins {
		switch d.Kind {
		case profile.PluginDefineGlobals:
			if opts.Define == nil {
				opts.Define = map[string]string{}
			}
			maps.Copy(opts.Define, d.GetStringMap("values"))
		case profile.PluginMinify:
			opts.MinifyWhitespace = true
			opts.MinifyIdentifiers = true
			opts.MinifySyntax = d.GetBool("compress")
			if d.GetBool("dropConsole") {
				opts.Drop |= api.DropConsole
			}
		}
	}

	emitted := &emittedFiles{}
	if !extractCSS {
		styleOpts := styleOptions(opts, bp.Rules, plugins)
		for _, rule := range bp.Rules {
			if rule.Handler == profile.HandlerStylesheet {
				plugins = append(plugins, styleInjectPlugin(rule, styleOpts, emitted))
			}
		}
	}
	opts.Plugins = plugins

	return opts, emitted, nil
}

// styleOptions bundles a single stylesheet with the same loaders, resolution
// and asset naming as the main build so url() and @import references follow
// the asset rules.
func styleOptions(opts api.BuildOptions, rules []profile.AssetRule, plugins []api.Plugin) api.BuildOptions {
	return api.BuildOptions{
		AbsWorkingDir:    opts.AbsWorkingDir,
		Outdir:           opts.Outdir,
		PublicPath:       opts.PublicPath,
		EntryNames:       "[name]",
		AssetNames:       opts.AssetNames,
		Bundle:           true,
		Write:            false,
		Platform:         opts.Platform,
		NodePaths:        opts.NodePaths,
		Loader:           loaders(rules, true),
		MinifyWhitespace: opts.MinifyWhitespace,
		MinifySyntax:     opts.MinifySyntax,
		Plugins:          slices.Clone(plugins),
		LogLevel:         api.LogLevelSilent,
	}
}

// nameTemplate converts an output filename template such as "[name].[hash].js"
// into an esbuild name template, esbuild appends the extension itself.
func nameTemplate(filename string) string {
	if filename == "" {
		return "[name]"
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// chunkNames always carries a content hash, esbuild names every shared chunk
// "chunk".
func chunkNames(filename string) string {
	name := nameTemplate(filename)
	if !strings.Contains(name, "[hash]") {
		name += "-[hash]"
	}
	return "chunks/" + name
}

func entryPoints(entries map[string]string) []api.EntryPoint {
	names := slices.Sorted(maps.Keys(entries))

	out := make([]api.EntryPoint, 0, len(names))
	for _, name := range names {
		out = append(out, api.EntryPoint{InputPath: entries[name], OutputPath: name})
	}
	return out
}

func sourceMap(mode profile.SourceMapMode) api.SourceMap {
	switch mode {
	case profile.SourceMapFull:
		return api.SourceMapLinked
	case profile.SourceMapEval:
		return api.SourceMapInline
	default:
		return api.SourceMapNone
	}
}

// nodePaths keeps absolute search roots, esbuild already walks node_modules
// hierarchically for the bare "node_modules" root.
func nodePaths(roots []string) []string {
	var out []string
	for _, root := range roots {
		if filepath.IsAbs(root) {
			out = append(out, root)
		}
	}
	return out
}

func loaders(rules []profile.AssetRule, extractCSS bool) map[string]api.Loader {
	out := map[string]api.Loader{}
	for _, rule := range rules {
		for _, ext := range rule.Extensions {
			switch rule.Handler {
			case profile.HandlerScript:
				out[ext] = api.LoaderJSX
			case profile.HandlerInlineableImage, profile.HandlerFont:
				out[ext] = api.LoaderFile
			case profile.HandlerStylesheet:
				if extractCSS {
					out[ext] = api.LoaderCSS
				}
			}
		}
	}
	return out
}

func inlineRules(rules []profile.AssetRule) []profile.AssetRule {
	var out []profile.AssetRule
	for _, rule := range rules {
		if rule.Handler.Inlineable() && rule.InlineThresholdBytes != nil && rule.Pattern != nil {
			out = append(out, rule)
		}
	}
	return out
}
