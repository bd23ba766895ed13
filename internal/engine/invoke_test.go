package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/luapack/internal/engine"
)

// fakeTool writes an executable shell script into dir.
func fakeTool(t *testing.T, dir, name, body string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell-script tool fakes need a POSIX shell")
	}

	script := "#!/bin/sh\n" + body
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755))
}

func TestInvokeGlueProducesArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// srglue <runtime> <bundle> <output>: fake it as a copy.
	fakeTool(t, dir, "srglue", `cp "$2" "$3"`+"\n")
	fakeTool(t, dir, "srlua", "exit 0\n")

	bundlePath := filepath.Join(dir, "bundle.lua")
	require.NoError(t, os.WriteFile(bundlePath, []byte("return 0\n"), 0o644))

	d := &engine.Descriptor{
		Name:       "fake",
		Kind:       engine.KindGlue,
		Executable: "srlua",
		Glue:       "srglue",
		Runtime:    "srlua",
		InstallDir: dir,
	}

	output := filepath.Join(dir, "app")

	produced, err := engine.Invoke(context.Background(), d, engine.Request{
		BundlePath: bundlePath,
		Output:     output,
	})
	require.NoError(t, err)
	assert.Equal(t, output, produced)
	assert.FileExists(t, produced)
}

func TestInvokeGlueRelativeNestedOutput(t *testing.T) {
	toolDir := t.TempDir()
	fakeTool(t, toolDir, "srglue", `cp "$2" "$3"`+"\n")
	fakeTool(t, toolDir, "srlua", "exit 0\n")

	work := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(work, "bin"), 0o755))

	bundlePath := filepath.Join(work, "bundle.lua")
	require.NoError(t, os.WriteFile(bundlePath, []byte("return 0\n"), 0o644))

	t.Chdir(work)

	d := &engine.Descriptor{
		Name:       "fake",
		Kind:       engine.KindGlue,
		Executable: "srlua",
		Glue:       "srglue",
		Runtime:    "srlua",
		InstallDir: toolDir,
	}

	output := filepath.Join("bin", "app")

	produced, err := engine.Invoke(context.Background(), d, engine.Request{
		BundlePath: bundlePath,
		Output:     output,
	})
	require.NoError(t, err)
	assert.Equal(t, output, produced)
	assert.FileExists(t, filepath.Join(work, "bin", "app"))
}

func TestInvokeGlueRequiresBundle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fakeTool(t, dir, "srglue", "exit 0\n")
	fakeTool(t, dir, "srlua", "exit 0\n")

	d := &engine.Descriptor{
		Name:       "fake",
		Kind:       engine.KindGlue,
		Executable: "srlua",
		Glue:       "srglue",
		Runtime:    "srlua",
		InstallDir: dir,
	}

	_, err := engine.Invoke(context.Background(), d, engine.Request{Output: filepath.Join(dir, "app")})
	assert.Error(t, err)
}

func TestInvokeProcessFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fakeTool(t, dir, "srglue", "echo boom >&2\nexit 3\n")
	fakeTool(t, dir, "srlua", "exit 0\n")

	bundlePath := filepath.Join(dir, "bundle.lua")
	require.NoError(t, os.WriteFile(bundlePath, []byte("return 0\n"), 0o644))

	d := &engine.Descriptor{
		Name:       "fake",
		Kind:       engine.KindGlue,
		Executable: "srlua",
		Glue:       "srglue",
		Runtime:    "srlua",
		InstallDir: dir,
	}

	_, err := engine.Invoke(context.Background(), d, engine.Request{
		BundlePath: bundlePath,
		Output:     filepath.Join(dir, "app"),
	})

	var procErr *engine.ProcessError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "fake", procErr.Engine)
	assert.Contains(t, procErr.Stderr, "boom")
}

func TestInvokeOutputMissingAfterSuccess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// Succeeds without producing anything.
	fakeTool(t, dir, "srglue", "exit 0\n")
	fakeTool(t, dir, "srlua", "exit 0\n")

	bundlePath := filepath.Join(dir, "bundle.lua")
	require.NoError(t, os.WriteFile(bundlePath, []byte("return 0\n"), 0o644))

	d := &engine.Descriptor{
		Name:       "fake",
		Kind:       engine.KindGlue,
		Executable: "srlua",
		Glue:       "srglue",
		Runtime:    "srlua",
		InstallDir: dir,
	}

	_, err := engine.Invoke(context.Background(), d, engine.Request{
		BundlePath: bundlePath,
		Output:     filepath.Join(dir, "app"),
	})
	assert.ErrorIs(t, err, engine.ErrOutputMissing)
}

func TestInvokeToolchainMissing(t *testing.T) {
	t.Parallel()

	d := &engine.Descriptor{
		Name:       "fake",
		Kind:       engine.KindGlue,
		Executable: "srlua",
		Glue:       "srglue",
		Runtime:    "srlua",
		InstallDir: t.TempDir(),
	}

	_, err := engine.Invoke(context.Background(), d, engine.Request{
		BundlePath: "bundle.lua",
		Output:     "app",
	})
	assert.ErrorIs(t, err, engine.ErrToolchainNotFound)
}

func TestInvokeFileListRenamesArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// luastatic names its artifact after the entry stem; fake that.
	fakeTool(t, dir, "luastatic", `stem=$(basename "$1" .lua)`+"\n"+`echo bin > "$stem"`+"\n")

	entry := filepath.Join(dir, "main.lua")
	require.NoError(t, os.WriteFile(entry, []byte("print(1)\n"), 0o644))

	d := &engine.Descriptor{
		Name:       "fakestatic",
		Kind:       engine.KindFileList,
		Executable: "luastatic",
		InstallDir: dir,
	}

	output := filepath.Join(dir, "renamed")

	produced, err := engine.Invoke(context.Background(), d, engine.Request{
		Files:  []string{entry},
		Output: output,
	})
	require.NoError(t, err)
	assert.Equal(t, output, produced)
	assert.FileExists(t, output)
	assert.NoFileExists(t, filepath.Join(dir, "main"))
}

func TestInvokeFileListNoInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fakeTool(t, dir, "luastatic", "exit 0\n")

	d := &engine.Descriptor{
		Name:       "fakestatic",
		Kind:       engine.KindFileList,
		Executable: "luastatic",
		InstallDir: dir,
	}

	_, err := engine.Invoke(context.Background(), d, engine.Request{Output: filepath.Join(dir, "out")})
	assert.Error(t, err)
}
