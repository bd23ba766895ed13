package depgraph

import (
	"fmt"
	"strings"
)

// ScriptNotFoundError reports an entry script that does not exist or is
// not a regular file.
type ScriptNotFoundError struct {
	Path string
}

func (e *ScriptNotFoundError) Error() string {
	return fmt.Sprintf("script not found: %s", e.Path)
}

// DynamicRequireError reports a require whose argument is not a literal
// string. The rest of the graph cannot be soundly determined past such a
// site, so the whole traversal aborts.
type DynamicRequireError struct {
	File string
	Line int
	Arg  string
}

func (e *DynamicRequireError) Error() string {
	return fmt.Sprintf("dynamic require at %s:%d: argument %q is not a literal string", e.File, e.Line, e.Arg)
}

// CycleError reports a require cycle. Cycle lists canonical paths in
// cycle order, first and last elements equal.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Cycle, " -> "))
}

// LimitError reports a traversal that needed more than the allowed
// number of distinct modules. Module names the require that overflowed
// the budget, or the entry itself when the budget is below 1.
type LimitError struct {
	Limit  int
	Module string
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("dependency limit exceeded: module %q would exceed the maximum of %d", e.Module, e.Limit)
}
