package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/luapack/internal/report"
)

func TestDependencies_ListsEntryAndFiles(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := report.New(&buf)

	writer.Dependencies("/src/main.lua", []string{"/src/main.lua", "/src/util.lua"})

	out := buf.String()
	assert.Contains(t, out, "Entry: /src/main.lua")
	assert.Contains(t, out, "Dependencies (2):")
	assert.Contains(t, out, "  /src/util.lua")
}

func TestDependencies_EmptyManifest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := report.New(&buf)

	writer.Dependencies("/src/main.lua", nil)

	assert.Contains(t, buf.String(), "Dependencies (0):")
}

func TestDependencyDetail_RendersSizeAndLanguage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "main.lua")
	require.NoError(t, os.WriteFile(path, []byte("print('hi')\n"), 0o600))

	var buf bytes.Buffer
	writer := report.New(&buf)

	require.NoError(t, writer.DependencyDetail([]string{path}))

	out := buf.String()
	assert.Contains(t, out, "main")
	assert.Contains(t, out, path)
	assert.Contains(t, out, "Lua")
	assert.Contains(t, out, "Total: 1 files")
}

func TestDependencyDetail_MissingFile_ReturnsError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := report.New(&buf)

	err := writer.DependencyDetail([]string{filepath.Join(t.TempDir(), "absent.lua")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.lua")
}

func TestEngines_ShowsAvailability(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	writer := report.New(&buf)

	writer.Engines([]report.EngineRow{
		{Name: "luastatic", Kind: "filelist", Summary: "C toolchain build", Available: true},
		{Name: "srlua", Kind: "glue", Summary: "srglue wrapper", Available: false},
	})

	out := buf.String()
	assert.Contains(t, out, "luastatic")
	assert.Contains(t, out, "available")
	assert.Contains(t, out, "srlua")
	assert.Contains(t, out, "missing")
}

func TestBuildResult_PrintsArtifactAndSize(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	writer := report.New(&buf)

	writer.BuildResult("app.exe", 2048)

	out := buf.String()
	assert.Contains(t, out, "Built app.exe")
	assert.Contains(t, out, "2.0 KiB")
}
