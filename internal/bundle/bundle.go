// Package bundle synthesizes a single self-contained Lua file from an
// ordered list of modules. The output embeds every module as an
// anonymous loader in a module table and installs a caching require
// shim, reproducing the load-once semantics of the original multi-file
// program with zero filesystem access at run time.
//
// Module sources become loader function bodies rather than string
// payloads, so long brackets, quotes, and comments inside a module never
// need re-escaping: any syntactically valid chunk stays valid inside the
// bundle.
package bundle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Markers that identify a luapack bundle. Kept stable because external
// tooling greps for them.
const (
	ModuleTableMarker = "_MODULES"
	RequireMarker     = "_require"
)

// Module is one entry of the bundle manifest: the key downstream code
// requires it by, and its source text.
type Module struct {
	Key    string
	Source string
}

// ErrEmptyManifest is returned when there is nothing to bundle.
var ErrEmptyManifest = errEmptyManifest{}

type errEmptyManifest struct{}

func (errEmptyManifest) Error() string { return "bundle manifest is empty" }

// Write emits the bundle for modules in manifest order. The last module
// is the entry; its loader is invoked exactly once, at the very end of
// the generated file. Write trusts the manifest it is given and performs
// no dependency discovery of its own.
func Write(w io.Writer, modules []Module) error {
	if len(modules) == 0 {
		return ErrEmptyManifest
	}

	out := bufio.NewWriter(w)

	writeShim(out)

	for _, mod := range modules {
		writeLoader(out, mod)
	}

	entry := modules[len(modules)-1]
	fmt.Fprintf(out, "return %s(%s)\n", RequireMarker, luaQuote(entry.Key))

	err := out.Flush()
	if err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}

	return nil
}

// WriteFile bundles modules into outputPath.
func WriteFile(outputPath string, modules []Module) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create bundle %s: %w", outputPath, err)
	}

	writeErr := Write(file, modules)

	closeErr := file.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("close bundle %s: %w", outputPath, closeErr)
	}

	return nil
}

// writeShim emits the module table and the caching require function.
// Lookup order on require(name): cache, bundled loader, host require.
// A loader runs at most once; a nil result caches as true, matching
// Lua's own package.loaded behavior.
func writeShim(out *bufio.Writer) {
	out.WriteString("-- bundled by luapack; do not edit\n")
	fmt.Fprintf(out, "local %s = {}\n", ModuleTableMarker)
	out.WriteString("local _LOADED = {}\n")
	out.WriteString("local _NATIVE_REQUIRE = require\n")
	fmt.Fprintf(out, "local function %s(name)\n", RequireMarker)
	out.WriteString("  local cached = _LOADED[name]\n")
	out.WriteString("  if cached ~= nil then\n")
	out.WriteString("    return cached\n")
	out.WriteString("  end\n")
	fmt.Fprintf(out, "  local loader = %s[name]\n", ModuleTableMarker)
	out.WriteString("  if loader == nil then\n")
	out.WriteString("    return _NATIVE_REQUIRE(name)\n")
	out.WriteString("  end\n")
	out.WriteString("  local value = loader(name)\n")
	out.WriteString("  if value == nil then\n")
	out.WriteString("    value = true\n")
	out.WriteString("  end\n")
	out.WriteString("  _LOADED[name] = value\n")
	out.WriteString("  return value\n")
	out.WriteString("end\n")
	out.WriteString("require = " + RequireMarker + "\n")
}

// luaQuote renders s as a double-quoted Lua 5.1 string literal. Go's %q
// is close but emits \x and \u escapes Lua does not parse, so control
// and non-ASCII bytes use Lua's decimal \ddd form instead.
func luaQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')

	for i := 0; i < len(s); i++ {
		ch := s[i]

		switch {
		case ch == '"' || ch == '\\':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case ch == '\n':
			b.WriteString(`\n`)
		case ch == '\r':
			b.WriteString(`\r`)
		case ch < 0x20 || ch >= 0x7f:
			// Three digits always, so a digit following the escape
			// is never absorbed into it.
			fmt.Fprintf(&b, `\%03d`, ch)
		default:
			b.WriteByte(ch)
		}
	}

	b.WriteByte('"')

	return b.String()
}

// writeLoader wraps one module's source as the body of its loader.
func writeLoader(out *bufio.Writer, mod Module) {
	fmt.Fprintf(out, "%s[%s] = function(...)\n", ModuleTableMarker, luaQuote(mod.Key))
	out.WriteString(mod.Source)

	if !strings.HasSuffix(mod.Source, "\n") {
		out.WriteByte('\n')
	}

	out.WriteString("end\n")
}
