// Package report renders analysis results and engine listings for the CLI.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/src-d/enry/v2"
)

const luaLanguage = "Lua"

// Writer renders reports to a single output stream.
type Writer struct {
	out io.Writer
}

// New creates a report Writer targeting out.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Dependencies prints the plain dependency listing for an entry script.
func (w *Writer) Dependencies(entry string, files []string) {
	fmt.Fprintf(w.out, "Entry: %s\n", entry)
	fmt.Fprintf(w.out, "Dependencies (%d):\n", len(files))

	for _, file := range files {
		fmt.Fprintf(w.out, "  %s\n", file)
	}
}

// DependencyDetail prints a table with size and detected language per file.
// Files that do not classify as Lua are flagged in the last column.
func (w *Writer) DependencyDetail(files []string) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w.out)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"Module", "Path", "Size", "Language"})

	var total uint64

	for _, file := range files {
		contents, readErr := os.ReadFile(file)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", file, readErr)
		}

		size := uint64(len(contents))
		total += size

		lang := enry.GetLanguage(filepath.Base(file), contents)
		if lang == "" {
			lang = "unknown"
		}

		if lang != luaLanguage {
			lang += " (!)"
		}

		tbl.AppendRow(table.Row{moduleStem(file), file, humanize.IBytes(size), lang})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d files", len(files)), humanize.IBytes(total), ""})
	tbl.Render()

	return nil
}

// EngineRow describes one engine for the engines listing.
type EngineRow struct {
	Name      string
	Kind      string
	Platforms string
	Summary   string
	Available bool
}

// Engines prints the engine listing with per-engine availability.
func (w *Writer) Engines(rows []EngineRow) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w.out)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"Engine", "Kind", "Platforms", "Status", "Summary"})

	for _, row := range rows {
		status := color.New(color.FgRed).Sprint("missing")
		if row.Available {
			status = color.New(color.FgGreen).Sprint("available")
		}

		platforms := row.Platforms
		if platforms == "" {
			platforms = "any"
		}

		tbl.AppendRow(table.Row{row.Name, row.Kind, platforms, status, row.Summary})
	}

	tbl.Render()
}

// BuildResult prints the final artifact line after a successful build.
func (w *Writer) BuildResult(output string, size int64) {
	color.New(color.FgGreen).Fprintf(w.out, "Built %s (%s)\n", output, humanize.IBytes(uint64(size)))
}

func moduleStem(file string) string {
	base := filepath.Base(file)

	return base[:len(base)-len(filepath.Ext(base))]
}
