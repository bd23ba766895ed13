// Package luapack is the public library surface: analyze a Lua program's
// require closure, bundle it into a single file, or drive a packaging
// engine end to end.
package luapack

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Sumatoshi-tech/luapack/internal/bundle"
	"github.com/Sumatoshi-tech/luapack/internal/config"
	"github.com/Sumatoshi-tech/luapack/internal/depgraph"
	"github.com/Sumatoshi-tech/luapack/internal/engine"
	"github.com/Sumatoshi-tech/luapack/internal/resolver"
)

// DefaultMaxDependencies bounds the dependency traversal when no
// override is given. The entry script counts against it.
const DefaultMaxDependencies = config.DefaultMaxDependencies

type options struct {
	maxDependencies int
	searchRoots     []string
	logger          *slog.Logger
}

// Option configures Analyze.
type Option func(*options)

// WithMaxDependencies overrides the traversal node budget.
func WithMaxDependencies(limit int) Option {
	return func(o *options) { o.maxDependencies = limit }
}

// WithSearchRoots adds module search roots after the entry's directory.
func WithSearchRoots(roots ...string) Option {
	return func(o *options) { o.searchRoots = append(o.searchRoots, roots...) }
}

// WithLogger injects a logger for traversal progress events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Analyze resolves the transitive require closure of entry and returns
// the dependency file paths in discovery order, entry excluded. The
// entry's directory is always the first search root.
func Analyze(entry string, opts ...Option) ([]string, error) {
	result, err := AnalyzeGraph(entry, opts...)
	if err != nil {
		return nil, err
	}

	return result.Files, nil
}

// AnalyzeGraph is Analyze with the full graph result: manifest, edges,
// and the canonical entry path.
func AnalyzeGraph(entry string, opts ...Option) (*depgraph.Result, error) {
	o := options{maxDependencies: DefaultMaxDependencies}
	for _, opt := range opts {
		opt(&o)
	}

	roots := append([]string{filepath.Dir(entry)}, o.searchRoots...)
	builder := depgraph.New(resolver.New(roots...), o.logger)

	return builder.Build(entry, o.maxDependencies)
}

// BundleEntry analyzes entry and writes its whole closure as one
// self-contained Lua bundle to output, keyed by require names. The
// returned result is the analyzed graph.
func BundleEntry(entry, output string, opts ...Option) (*depgraph.Result, error) {
	result, err := AnalyzeGraph(entry, opts...)
	if err != nil {
		return nil, err
	}

	modules, modErr := modulesFromManifest(result.Manifest)
	if modErr != nil {
		return nil, modErr
	}

	writeErr := bundle.WriteFile(output, modules)
	if writeErr != nil {
		return nil, writeErr
	}

	return result, nil
}

// BundleToSingleFile writes files as one self-contained Lua bundle to
// output. The last file is the entry; module keys are derived from file
// stems.
func BundleToSingleFile(files []string, output string) error {
	modules, err := modulesFromFiles(files)
	if err != nil {
		return err
	}

	return bundle.WriteFile(output, modules)
}

func modulesFromFiles(files []string) ([]bundle.Module, error) {
	modules := make([]bundle.Module, 0, len(files))

	for _, file := range files {
		src, readErr := os.ReadFile(file)
		if readErr != nil {
			return nil, fmt.Errorf("read module %s: %w", file, readErr)
		}

		modules = append(modules, bundle.Module{Key: stem(file), Source: string(src)})
	}

	return modules, nil
}

func modulesFromManifest(manifest []depgraph.Entry) ([]bundle.Module, error) {
	modules := make([]bundle.Module, 0, len(manifest))

	for _, entry := range manifest {
		src, readErr := os.ReadFile(entry.Path)
		if readErr != nil {
			return nil, fmt.Errorf("read module %s: %w", entry.Path, readErr)
		}

		modules = append(modules, bundle.Module{Key: entry.Key, Source: string(src)})
	}

	return modules, nil
}

func stem(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// defaultOutput names the artifact after the entry stem, in the current
// directory, with .exe appended on Windows.
func defaultOutput(entry string) string {
	name := stem(entry)
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	return name
}

// Engines returns the names of packaging engines usable on this host.
func Engines() []string {
	return engine.NewRegistry().Available()
}
