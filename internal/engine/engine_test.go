package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/luapack/internal/engine"
)

func TestRegistryBuiltins(t *testing.T) {
	t.Parallel()

	reg := engine.NewRegistry()

	for _, name := range []string{"luastatic", "srlua", "winsrlua515", "winsrlua548", "linsrlua515", "linsrlua548"} {
		d, err := reg.Resolve(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, d.Name)
	}
}

func TestRegistryUnknownEngine(t *testing.T) {
	t.Parallel()

	reg := engine.NewRegistry()

	_, err := reg.Resolve("wasmpack")

	var notFound *engine.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "wasmpack", notFound.Name)
	assert.Contains(t, notFound.Known, "luastatic")
	assert.Contains(t, notFound.Known, "srlua")
}

func TestRegistryRejectsCollision(t *testing.T) {
	t.Parallel()

	reg := engine.NewRegistry()

	err := reg.Register(&engine.Descriptor{Name: "srlua", Kind: engine.KindGlue, Executable: "x"})
	assert.Error(t, err)
}

func TestDescriptorPlatforms(t *testing.T) {
	t.Parallel()

	anyOS := &engine.Descriptor{Name: "a"}
	assert.True(t, anyOS.SupportsPlatform("linux"))
	assert.True(t, anyOS.SupportsPlatform("windows"))

	linuxOnly := &engine.Descriptor{Name: "b", Platforms: []string{"linux"}}
	assert.True(t, linuxOnly.SupportsPlatform("linux"))
	assert.False(t, linuxOnly.SupportsPlatform("windows"))
}

func TestProbePinnedInstallDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	d := &engine.Descriptor{
		Name:       "pinned",
		Kind:       engine.KindGlue,
		Executable: "srlua",
		Glue:       "srglue",
		Runtime:    "srlua",
		InstallDir: dir,
	}

	assert.False(t, engine.Probe(d))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "srlua"), []byte("stub"), 0o755))
	assert.False(t, engine.Probe(d), "glue tool still missing")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "srglue"), []byte("stub"), 0o755))
	assert.True(t, engine.Probe(d))
}

func TestProbePathLookup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "luastatic"), []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("PATH", dir)

	reg := engine.NewRegistry()
	d, err := reg.Resolve("luastatic")
	require.NoError(t, err)

	assert.True(t, engine.Probe(d))

	srlua, err := reg.Resolve("srlua")
	require.NoError(t, err)
	assert.False(t, engine.Probe(srlua))
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "engines.yaml")
	manifest := `engines:
  - name: custom
    kind: glue
    executable: /opt/custom/srlua
    glue: /opt/custom/srglue
    platforms: [linux]
    summary: in-house runtime
`
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	reg := engine.NewRegistry()
	require.NoError(t, reg.LoadManifest(path))

	d, err := reg.Resolve("custom")
	require.NoError(t, err)
	assert.Equal(t, engine.KindGlue, d.Kind)
	assert.Equal(t, "/opt/custom/srlua", d.Runtime, "glue runtime defaults to the executable")
}

func TestLoadManifestSchemaRejection(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "engines.yaml")
	manifest := `engines:
  - name: broken
    kind: teleport
    executable: x
`
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	err := engine.NewRegistry().LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind")
}

func TestLoadManifestBuiltinCollision(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "engines.yaml")
	manifest := `engines:
  - name: luastatic
    kind: filelist
    executable: /opt/other/luastatic
`
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	err := engine.NewRegistry().LoadManifest(path)
	assert.Error(t, err)
}

func TestLoadManifestMissingFile(t *testing.T) {
	t.Parallel()

	err := engine.NewRegistry().LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
