package luapack

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Sumatoshi-tech/luapack/internal/bundle"
	"github.com/Sumatoshi-tech/luapack/internal/config"
	"github.com/Sumatoshi-tech/luapack/internal/depgraph"
	"github.com/Sumatoshi-tech/luapack/internal/engine"
	"github.com/Sumatoshi-tech/luapack/internal/resolver"
)

type buildOptions struct {
	ctx         context.Context
	engineName  string
	output      string
	requires    []string
	manual      bool
	searchRoots []string
	maxDeps     int
	logger      *slog.Logger
	registry    *engine.Registry
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithEngine selects the packaging engine by name.
func WithEngine(name string) BuildOption {
	return func(o *buildOptions) { o.engineName = name }
}

// WithOutput sets the output artifact path.
func WithOutput(path string) BuildOption {
	return func(o *buildOptions) { o.output = path }
}

// WithRequires adds explicit dependency files to the build.
func WithRequires(files ...string) BuildOption {
	return func(o *buildOptions) { o.requires = append(o.requires, files...) }
}

// WithManual skips dependency analysis; the explicit requires are the
// whole dependency set.
func WithManual() BuildOption {
	return func(o *buildOptions) { o.manual = true }
}

// WithBuildSearchRoots adds module search roots for the analysis step.
func WithBuildSearchRoots(roots ...string) BuildOption {
	return func(o *buildOptions) { o.searchRoots = append(o.searchRoots, roots...) }
}

// WithBuildMaxDependencies overrides the analysis node budget.
func WithBuildMaxDependencies(limit int) BuildOption {
	return func(o *buildOptions) { o.maxDeps = limit }
}

// WithBuildLogger injects a logger for analysis progress events.
func WithBuildLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) { o.logger = logger }
}

// WithRegistry overrides the engine registry, primarily for tests and
// embedders that load their own manifests.
func WithRegistry(reg *engine.Registry) BuildOption {
	return func(o *buildOptions) { o.registry = reg }
}

// WithContext sets the context for the external toolchain run.
func WithContext(ctx context.Context) BuildOption {
	return func(o *buildOptions) { o.ctx = ctx }
}

// Build packages entry into a standalone executable and returns the
// produced binary's path. Without WithOutput the artifact is named after
// the entry stem in the current directory.
func Build(entry string, opts ...BuildOption) (string, error) {
	o := buildOptions{
		ctx:        context.Background(),
		engineName: config.DefaultEngine,
		maxDeps:    DefaultMaxDependencies,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.registry == nil {
		o.registry = engine.NewRegistry()
	}

	descriptor, resolveErr := o.registry.Resolve(o.engineName)
	if resolveErr != nil {
		return "", resolveErr
	}

	manifest, manifestErr := buildManifest(entry, &o)
	if manifestErr != nil {
		return "", manifestErr
	}

	output := o.output
	if output == "" {
		output = defaultOutput(entry)
	}

	req := engine.Request{Output: output}

	if descriptor.Kind == engine.KindGlue {
		bundlePath, bundleErr := bundleToTemp(manifest)
		if bundleErr != nil {
			return "", bundleErr
		}
		defer os.Remove(bundlePath)

		req.BundlePath = bundlePath
	} else {
		files := make([]string, 0, len(manifest))
		for _, mod := range manifest {
			files = append(files, mod.Path)
		}

		req.Files = files
	}

	return engine.Invoke(o.ctx, descriptor, req)
}

// buildManifest assembles the ordered module manifest, entry last. Manual
// mode takes the explicit requires as-is after an eager existence check;
// auto mode analyzes the graph and merges explicit requires that were
// not discovered.
func buildManifest(entry string, o *buildOptions) ([]depgraph.Entry, error) {
	if o.manual {
		return manualManifest(entry, o.requires)
	}

	analyzeOpts := []Option{
		WithMaxDependencies(o.maxDeps),
		WithSearchRoots(o.searchRoots...),
	}
	if o.logger != nil {
		analyzeOpts = append(analyzeOpts, WithLogger(o.logger))
	}

	result, err := AnalyzeGraph(entry, analyzeOpts...)
	if err != nil {
		return nil, err
	}

	return mergeRequires(result.Manifest, o.requires)
}

func manualManifest(entry string, requires []string) ([]depgraph.Entry, error) {
	manifest := make([]depgraph.Entry, 0, len(requires)+1)

	for _, file := range append(append([]string{}, requires...), entry) {
		canonical, err := resolver.Canonical(file)
		if err != nil {
			return nil, &depgraph.ScriptNotFoundError{Path: file}
		}

		info, statErr := os.Stat(canonical)
		if statErr != nil || !info.Mode().IsRegular() {
			return nil, &depgraph.ScriptNotFoundError{Path: file}
		}

		manifest = append(manifest, depgraph.Entry{Key: stem(canonical), Path: canonical})
	}

	return manifest, nil
}

// mergeRequires inserts explicit requires the analysis did not discover,
// keeping the entry as the final manifest element.
func mergeRequires(manifest []depgraph.Entry, requires []string) ([]depgraph.Entry, error) {
	if len(requires) == 0 {
		return manifest, nil
	}

	known := make(map[string]bool, len(manifest))
	for _, entry := range manifest {
		known[entry.Path] = true
	}

	extra := make([]depgraph.Entry, 0, len(requires))

	for _, file := range requires {
		canonical, err := resolver.Canonical(file)
		if err != nil {
			return nil, &depgraph.ScriptNotFoundError{Path: file}
		}

		if known[canonical] {
			continue
		}

		info, statErr := os.Stat(canonical)
		if statErr != nil || !info.Mode().IsRegular() {
			return nil, &depgraph.ScriptNotFoundError{Path: file}
		}

		known[canonical] = true
		extra = append(extra, depgraph.Entry{Key: stem(canonical), Path: canonical})
	}

	merged := make([]depgraph.Entry, 0, len(manifest)+len(extra))
	merged = append(merged, manifest[:len(manifest)-1]...)
	merged = append(merged, extra...)
	merged = append(merged, manifest[len(manifest)-1])

	return merged, nil
}

func bundleToTemp(manifest []depgraph.Entry) (string, error) {
	modules, err := modulesFromManifest(manifest)
	if err != nil {
		return "", err
	}

	tmp, createErr := os.CreateTemp("", "luapack-bundle-*.lua")
	if createErr != nil {
		return "", fmt.Errorf("create bundle temp file: %w", createErr)
	}

	writeErr := bundle.Write(tmp, modules)
	closeErr := tmp.Close()

	if writeErr != nil {
		os.Remove(tmp.Name())

		return "", writeErr
	}

	if closeErr != nil {
		os.Remove(tmp.Name())

		return "", fmt.Errorf("close bundle temp file: %w", closeErr)
	}

	return tmp.Name(), nil
}
