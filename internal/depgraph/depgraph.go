// Package depgraph discovers the transitive require closure of an entry
// script. Traversal is breadth-first and deterministic: require sites are
// processed in source order, files in discovery order, so two runs over
// unchanged inputs produce identical graphs and identical orderings.
//
// Any condition that makes the closure statically undeterminable (a
// dynamic require, an unresolvable module, a cycle, or a blown node
// budget) aborts the whole build with a typed error. There is no
// partial result on failure.
package depgraph

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/luapack/internal/resolver"
	"github.com/Sumatoshi-tech/luapack/internal/scanner"
)

// Entry is one (module key, canonical path) pair of the bundle manifest.
// The key is the module name as written at the require call site, so the
// bundled program keeps resolving the names it already uses.
type Entry struct {
	Key  string
	Path string
}

// Edge is one resolved require relation between two units.
type Edge struct {
	From string
	To   string
}

// Result is a completed dependency graph. Files lists every non-entry
// unit in discovery order; Manifest appends the entry last, which is the
// order the bundler consumes.
type Result struct {
	EntryPath string
	Files     []string
	Manifest  []Entry
	Edges     []Edge
}

// Builder drives scanning and resolution. Each Build call constructs
// fresh traversal state; a Builder itself holds only collaborators.
type Builder struct {
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// New creates a Builder. A nil logger discards progress events.
func New(res *resolver.Resolver, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Builder{resolver: res, logger: logger}
}

// Build analyzes the graph reachable from entryPath. The entry file
// always counts against maxNodes, so a budget below 1 fails immediately.
func (b *Builder) Build(entryPath string, maxNodes int) (*Result, error) {
	entry, err := resolver.Canonical(entryPath)
	if err != nil || !isRegular(entry) {
		return nil, &ScriptNotFoundError{Path: entryPath}
	}

	if maxNodes < 1 {
		return nil, &LimitError{Limit: maxNodes, Module: moduleKeyForFile(entry)}
	}

	t := &traversal{
		builder:  b,
		entry:    entry,
		maxNodes: maxNodes,
		children: map[string][]string{},
		keys:     map[string]string{},
		visited:  map[string]bool{entry: true},
	}

	return t.run()
}

type traversal struct {
	builder  *Builder
	entry    string
	maxNodes int

	queue    []string
	order    []string
	edges    []Edge
	children map[string][]string
	keys     map[string]string
	visited  map[string]bool
}

func (t *traversal) run() (*Result, error) {
	t.queue = []string{t.entry}

	for len(t.queue) > 0 {
		unit := t.queue[0]
		t.queue = t.queue[1:]

		err := t.visit(unit)
		if err != nil {
			return nil, err
		}
	}

	manifest := make([]Entry, 0, len(t.order)+1)
	for _, path := range t.order {
		manifest = append(manifest, Entry{Key: t.keys[path], Path: path})
	}
	manifest = append(manifest, Entry{Key: moduleKeyForFile(t.entry), Path: t.entry})

	return &Result{
		EntryPath: t.entry,
		Files:     t.order,
		Manifest:  manifest,
		Edges:     t.edges,
	}, nil
}

func (t *traversal) visit(unit string) error {
	src, err := os.ReadFile(unit)
	if err != nil {
		return fmt.Errorf("read %s: %w", unit, err)
	}

	sites := scanner.Scan(string(src))
	t.builder.logger.Debug("scanned unit", "path", unit, "sites", len(sites))

	for _, site := range sites {
		siteErr := t.visitSite(unit, site)
		if siteErr != nil {
			return siteErr
		}
	}

	return nil
}

func (t *traversal) visitSite(unit string, site scanner.Site) error {
	if !site.Literal {
		return &DynamicRequireError{File: unit, Line: site.Line, Arg: site.Arg}
	}

	res, err := t.builder.resolver.Resolve(site.Name)
	if err != nil {
		return fmt.Errorf("required from %s:%d: %w", unit, site.Line, err)
	}

	if cycle := t.cyclePath(unit, res.Path); cycle != nil {
		return &CycleError{Cycle: cycle}
	}

	t.edges = append(t.edges, Edge{From: unit, To: res.Path})
	t.children[unit] = append(t.children[unit], res.Path)

	if t.visited[res.Path] {
		// Diamond dependency: second edge to an existing node, no rescan.
		return nil
	}

	if len(t.visited)+1 > t.maxNodes {
		return &LimitError{Limit: t.maxNodes, Module: site.Name}
	}

	t.visited[res.Path] = true
	t.keys[res.Path] = site.Name
	t.order = append(t.order, res.Path)
	t.queue = append(t.queue, res.Path)

	t.builder.logger.Debug("discovered module", "name", site.Name, "path", res.Path)

	return nil
}

// cyclePath reports the cycle that the edge unit→target would close, or
// nil. Target is an ancestor of unit when unit is reachable from target
// over the edges recorded so far; a node merely visited before with no
// such path (diamond dependency) is not a cycle.
func (t *traversal) cyclePath(unit, target string) []string {
	if unit == target {
		return []string{unit, unit}
	}

	path := t.findPath(target, unit, map[string]bool{target: true})
	if path == nil {
		return nil
	}

	return append(path, target)
}

// findPath returns the first edge path from current to goal, following
// children in insertion order so the reported cycle is deterministic.
func (t *traversal) findPath(current, goal string, seen map[string]bool) []string {
	if current == goal {
		return []string{goal}
	}

	for _, child := range t.children[current] {
		if seen[child] {
			continue
		}
		seen[child] = true

		if sub := t.findPath(child, goal, seen); sub != nil {
			return append([]string{current}, sub...)
		}
	}

	return nil
}

// moduleKeyForFile derives a bundle key for a file that was never named
// at a require site, in practice the entry script.
func moduleKeyForFile(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
