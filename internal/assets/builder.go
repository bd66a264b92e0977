package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/webprofile/internal/profile"
)

// Build runs esbuild with the profile settings, writes the outputs and runs
// the post build steps requested by the plugin directives.
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	log := zerolog.Ctx(ctx)
	bp := p.profile

	if err := bp.RequireTemplate(); err != nil {
		return nil, err
	}

	opts, emitted, err := p.buildOptions()
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("mode", bp.Mode).
		Str("outdir", bp.OutputDir).
		Interface("entrypoints", bp.EntryPoints).
		Msg("Building assets")

	for _, d := range bp.PluginsOf(profile.PluginDevNoopInProd) {
		log.Debug().Interface("params", d.Params).Msg("Directive has no esbuild equivalent, skipping")
	}

	result := api.Build(opts)

	for _, msg := range api.FormatMessages(result.Warnings, api.FormatMessagesOptions{Kind: api.WarningMessage}) {
		log.Warn().Str("warning", msg).Msg("Build warning")
	}

	if len(result.Errors) > 0 {
		for _, msg := range api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage}) {
			log.Error().Str("error", msg).Msg("Build error")
		}
		return nil, fmt.Errorf("%w: %d errors", ErrBuildFailed, len(result.Errors))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.config.Clean {
		if err := os.RemoveAll(bp.OutputDir); err != nil {
			return nil, fmt.Errorf("failed to clean output dir: %w", err)
		}
	}

	res := &Result{
		Entries:  map[string]EntryAssets{},
		Warnings: len(result.Warnings),
	}

	for _, file := range result.OutputFiles {
		if err := writeFile(file.Path, file.Contents); err != nil {
			return nil, err
		}
		res.Outputs = append(res.Outputs, file.Path)
		log.Info().Str("file", file.Path).Msg("Built file")
	}

	for _, path := range emitted.sorted() {
		if slices.Contains(res.Outputs, path) {
			continue
		}
		if err := writeFile(path, emitted.contents(path)); err != nil {
			return nil, err
		}
		res.Outputs = append(res.Outputs, path)
		log.Info().Str("file", path).Msg("Built stylesheet asset")
	}

	if p.config.MetafileName != "" {
		if err := writeFile(filepath.Join(bp.OutputDir, p.config.MetafileName), []byte(result.Metafile)); err != nil {
			return nil, err
		}
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	p.metadata = &metadata

	for name := range bp.EntryPoints {
		assets, err := p.entryAssets(name)
		if err != nil {
			return nil, err
		}
		res.Entries[name] = assets
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if d, ok := bp.Plugin(profile.PluginHTMLTemplate); ok {
		res.HTMLPath, err = renderHTML(d, bp.OutputDir, res.Entries)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", res.HTMLPath).Msg("Rendered html template")
	}

	for _, d := range bp.PluginsOf(profile.PluginCopyStatic) {
		copied, err := copyStatic(ctx, d, bp.OutputDir)
		if err != nil {
			return nil, err
		}
		res.Copied = append(res.Copied, copied...)
	}

	if p.config.ManifestName != "" {
		res.ManifestPath = filepath.Join(bp.OutputDir, p.config.ManifestName)
		if err := writeManifest(res.ManifestPath, bp, res.Entries); err != nil {
			return nil, err
		}
	}

	if p.config.Precompress {
		res.Compressed, err = precompress(ctx, bp.OutputDir)
		if err != nil {
			return nil, err
		}
	}

	log.Info().
		Int("outputs", len(res.Outputs)).
		Int("copied", len(res.Copied)).
		Int("warnings", res.Warnings).
		Msg("Build complete")

	return res, nil
}

// LoadScripts returns the ordered list of script paths needed for the given entrypoint
// and the main entrypoint file path
func (p *Pipeline) LoadScripts(name string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	assets, err := p.entryAssets(name)
	if err != nil {
		return nil, "", err
	}

	scripts := append([]string{assets.Script}, assets.Chunks...)
	return scripts, assets.Script, nil
}

func (p *Pipeline) entryAssets(name string) (EntryAssets, error) {
	if p.metadata == nil {
		return EntryAssets{}, ErrNotBuilt
	}

	input, ok := p.profile.EntryPoints[name]
	if !ok {
		return EntryAssets{}, fmt.Errorf("%w: %s", ErrEntryPointNotFound, name)
	}
	entryPointPath, err := p.relative(input)
	if err != nil {
		return EntryAssets{}, err
	}

	// The css extracted from an entry carries the same entryPoint, only the
	// script output lists it under cssBundle
	for _, outputPath := range slices.Sorted(maps.Keys(p.metadata.Outputs)) {
		info := p.metadata.Outputs[outputPath]
		if info.EntryPoint != entryPointPath || !strings.HasSuffix(outputPath, ".js") {
			continue
		}

		assets := EntryAssets{
			Script:  p.url(outputPath),
			Outputs: []string{outputPath},
		}
		visited := map[string]bool{outputPath: true}
		p.addDependencies(info, &assets, visited)
		if info.CSSBundle != "" {
			assets.Styles = append(assets.Styles, p.url(info.CSSBundle))
			assets.Outputs = append(assets.Outputs, info.CSSBundle)
		}
		return assets, nil
	}

	return EntryAssets{}, fmt.Errorf("%w: %s", ErrEntryPointNotFound, entryPointPath)
}

func (p *Pipeline) addDependencies(output OutputInfo, assets *EntryAssets, visited map[string]bool) {
	for _, imp := range output.Imports {
		// Dynamic imports are fetched on demand and not preloaded
		if imp.Kind == "dynamic-import" || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true

		chunkInfo, exists := p.metadata.Outputs[imp.Path]
		if !exists {
			continue
		}
		assets.Chunks = append(assets.Chunks, p.url(imp.Path))
		assets.Outputs = append(assets.Outputs, imp.Path)
		p.addDependencies(chunkInfo, assets, visited)
	}
}

// relative converts an absolute path into the slash separated form esbuild
// uses in the metafile.
func (p *Pipeline) relative(path string) (string, error) {
	rel, err := filepath.Rel(p.profile.RootDir, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// url maps a metafile output path onto the public path.
func (p *Pipeline) url(outputPath string) string {
	abs := filepath.Join(p.profile.RootDir, filepath.FromSlash(outputPath))
	rel, err := filepath.Rel(p.profile.OutputDir, abs)
	if err != nil {
		rel = outputPath
	}
	return strings.TrimSuffix(p.profile.PublicPath, "/") + "/" + filepath.ToSlash(rel)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	//nolint:gosec // build outputs are served publicly
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
