// Package engine maps build-engine names to descriptors of external
// native-packaging toolchains, probes their availability on the host,
// and provides the thin invocation wrapper that hands a resolved file
// list (or bundle) to the chosen engine.
//
// The registry replaces name-string branching at call sites: every
// engine is a descriptor with a uniform probe/invoke surface, and
// user-defined engines merge in from a validated manifest.
package engine

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Kind describes how an engine consumes its input.
type Kind string

const (
	// KindFileList engines accept the entry script plus every
	// dependency on the command line (luastatic).
	KindFileList Kind = "filelist"
	// KindGlue engines glue exactly one script onto a runtime stub, so
	// multi-file programs are bundled first (srlua family).
	KindGlue Kind = "glue"
)

// Descriptor describes one build engine.
type Descriptor struct {
	Name string
	Kind Kind
	// Executable is the primary tool, looked up on PATH unless
	// InstallDir pins an expected install location.
	Executable string
	// Glue is the companion glue tool for KindGlue engines.
	Glue string
	// Runtime is the runtime stub a glue engine prepends.
	Runtime string
	// InstallDir, when set, is the expected install location for a
	// pinned engine; tools are probed there instead of on PATH.
	InstallDir string
	// Platforms limits the engine to specific GOOS values; empty means
	// any platform.
	Platforms []string
	// Summary is a one-line human description.
	Summary string
}

// SupportsPlatform reports whether the descriptor applies to goos.
func (d *Descriptor) SupportsPlatform(goos string) bool {
	if len(d.Platforms) == 0 {
		return true
	}

	for _, p := range d.Platforms {
		if p == goos {
			return true
		}
	}

	return false
}

// tools returns every executable the engine needs on the host.
func (d *Descriptor) tools() []string {
	names := []string{d.Executable}
	if d.Glue != "" {
		names = append(names, d.Glue)
	}

	return names
}

// NotFoundError reports a requested engine name absent from the
// registry. Known lists the registered names, sorted.
type NotFoundError struct {
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown engine %q (known engines: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Registry holds engine descriptors indexed by name.
type Registry struct {
	byName map[string]*Descriptor
	order  []string
}

// NewRegistry creates a registry pre-populated with the builtin engines.
func NewRegistry() *Registry {
	reg := &Registry{byName: map[string]*Descriptor{}}

	for _, d := range builtins() {
		// Builtin names are unique by construction.
		_ = reg.Register(d)
	}

	return reg
}

// Register adds a descriptor. Name collisions are rejected so a
// manifest cannot silently shadow a builtin.
func (r *Registry) Register(d *Descriptor) error {
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("engine %q is already registered", d.Name)
	}

	r.byName[d.Name] = d
	r.order = append(r.order, d.Name)

	return nil
}

// Resolve maps a name to its descriptor.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		known := make([]string, len(r.order))
		copy(known, r.order)
		sort.Strings(known)

		return nil, &NotFoundError{Name: name, Known: known}
	}

	return d, nil
}

// All returns every descriptor in registration order.
func (r *Registry) All() []*Descriptor {
	all := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.byName[name])
	}

	return all
}

// Available returns the names of engines that apply to this platform
// and whose toolchain probes successfully.
func (r *Registry) Available() []string {
	var names []string

	for _, d := range r.All() {
		if d.SupportsPlatform(runtime.GOOS) && Probe(d) {
			names = append(names, d.Name)
		}
	}

	return names
}

// Probe reports whether every tool the engine needs exists on the host:
// in InstallDir for pinned engines, on PATH otherwise.
func Probe(d *Descriptor) bool {
	for _, tool := range d.tools() {
		if _, err := lookupTool(d, tool); err != nil {
			return false
		}
	}

	return true
}

func lookupTool(d *Descriptor, tool string) (string, error) {
	if d.InstallDir != "" {
		path := filepath.Join(d.InstallDir, tool)

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return "", fmt.Errorf("tool %s not present in %s", tool, d.InstallDir)
		}

		return path, nil
	}

	path, err := exec.LookPath(tool)
	if err != nil {
		return "", fmt.Errorf("tool %s not on PATH: %w", tool, err)
	}

	return path, nil
}

func exeSuffixHost() string {
	return exeSuffix(runtime.GOOS)
}

// exeSuffix is appended to tool names on Windows installs.
func exeSuffix(goos string) string {
	if goos == "windows" {
		return ".exe"
	}

	return ""
}

// builtins returns the engines luapack knows out of the box: luastatic
// and srlua from PATH, plus the pinned srlua variants at their expected
// install locations.
func builtins() []*Descriptor {
	pinned := func(name, dir, goos, lua string) *Descriptor {
		suffix := exeSuffix(goos)

		return &Descriptor{
			Name:       name,
			Kind:       KindGlue,
			Executable: "srlua" + suffix,
			Glue:       "srglue" + suffix,
			Runtime:    "srlua" + suffix,
			InstallDir: dir,
			Platforms:  []string{goos},
			Summary:    fmt.Sprintf("pinned srlua %s runtime for %s", lua, goos),
		}
	}

	return []*Descriptor{
		{
			Name:       "luastatic",
			Kind:       KindFileList,
			Executable: "luastatic",
			Summary:    "compile scripts and Lua into a static executable (needs a C compiler)",
		},
		{
			Name:       "srlua",
			Kind:       KindGlue,
			Executable: "srlua",
			Glue:       "srglue",
			Runtime:    "srlua",
			Summary:    "glue a bundled script onto the srlua runtime from PATH",
		},
		pinned("winsrlua515", `C:\srlua515`, "windows", "5.1.5"),
		pinned("winsrlua548", `C:\srlua548`, "windows", "5.4.8"),
		pinned("linsrlua515", "/opt/srlua515", "linux", "5.1.5"),
		pinned("linsrlua548", "/opt/srlua548", "linux", "5.4.8"),
	}
}
