// Package resolver maps required module names to files on disk using
// Lua's default search rules. A name resolves either to a script file
// that can be bundled, or to a native (compiled) module that exists but
// cannot be statically packaged; callers must be able to tell the two
// apart, and both apart from "not found".
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies what a module name resolved to.
type Kind int

const (
	// KindScript is a plain Lua source file.
	KindScript Kind = iota
	// KindNative is a compiled shared-library module.
	KindNative
)

// nativeSuffixes are the shared-library name patterns recognized on any
// host, so analysis of a tree authored on another platform still reports
// native modules instead of "not found".
var nativeSuffixes = []string{".so", ".dll"}

// Resolution is a successfully resolved module. Path is absolute and
// symlink-resolved.
type Resolution struct {
	Name string
	Path string
	Kind Kind
}

// ModuleNotFoundError reports a module name with no candidate file in
// any search root.
type ModuleNotFoundError struct {
	Name     string
	Searched []string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module %q not found (searched %s)", e.Name, strings.Join(e.Searched, ", "))
}

// NativeModuleError reports a module that exists only as a compiled
// shared library, which cannot be embedded into a bundle.
type NativeModuleError struct {
	Name string
	Path string
}

func (e *NativeModuleError) Error() string {
	return fmt.Sprintf("module %q is a native module (%s) and cannot be statically packaged", e.Name, e.Path)
}

// Resolver resolves module names against an ordered list of search
// roots. The entry script's directory is conventionally the first root.
type Resolver struct {
	roots []string
}

// New creates a Resolver over the given search roots, kept in order.
func New(roots ...string) *Resolver {
	return &Resolver{roots: roots}
}

// Roots returns the search roots in priority order.
func (r *Resolver) Roots() []string {
	return r.roots
}

// Resolve maps a dot- or path-separated module name to a file. Search
// rules per root, in priority order: <root>/<name>.lua with separators
// mapped to path separators, then <root>/<name>/init.lua. The first
// existing regular file wins. When no script candidate exists anywhere
// but a native shared-library pattern matches, the error is
// *NativeModuleError rather than *ModuleNotFoundError.
func (r *Resolver) Resolve(name string) (Resolution, error) {
	relative := nameToPath(name)

	searched := make([]string, 0, len(r.roots)*2)

	for _, root := range r.roots {
		candidates := []string{
			filepath.Join(root, relative+".lua"),
			filepath.Join(root, relative, "init.lua"),
		}

		for _, candidate := range candidates {
			searched = append(searched, candidate)

			path, ok := regularFile(candidate)
			if ok {
				return Resolution{Name: name, Path: path, Kind: KindScript}, nil
			}
		}
	}

	for _, root := range r.roots {
		for _, suffix := range nativeSuffixes {
			path, ok := regularFile(filepath.Join(root, relative+suffix))
			if ok {
				return Resolution{}, &NativeModuleError{Name: name, Path: path}
			}
		}
	}

	return Resolution{}, &ModuleNotFoundError{Name: name, Searched: searched}
}

// nameToPath converts a module name to a relative path: dots become
// separators unless the name already uses explicit path separators.
func nameToPath(name string) string {
	if strings.ContainsAny(name, "/\\") {
		return filepath.FromSlash(strings.ReplaceAll(name, "\\", "/"))
	}

	return filepath.FromSlash(strings.ReplaceAll(name, ".", "/"))
}

// regularFile reports whether path is an existing regular file, and
// returns its canonical (absolute, symlink-resolved) form.
func regularFile(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}

	canonical, err := Canonical(path)
	if err != nil {
		return "", false
	}

	return canonical, true
}

// Canonical returns the absolute, symlink-resolved form of path, used as
// node identity everywhere so textual aliases collapse to one node.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path of %s: %w", path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolve symlinks of %s: %w", abs, err)
	}

	return resolved, nil
}
