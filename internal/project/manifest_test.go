package project

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path, contents string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0o644))
}

func TestLoadManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/proj/cjpm.toml", `
[package]
name = "demo"
source_dirs = ["src", "gen"]

[dependencies]
stdx = "^1.2.0"
`)

	m, err := LoadManifest(fs, "/proj")
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Package.Name)
	assert.Equal(t, []string{"src", "gen"}, m.SourceRoots())
	assert.Equal(t, "^1.2.0", m.Dependencies["stdx"])
}

func TestLoadManifestMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := LoadManifest(fs, "/proj")
	assert.Error(t, err)
}

func TestManifestDefaultSourceRoots(t *testing.T) {
	var m Manifest
	assert.Equal(t, []string{"src"}, m.SourceRoots())
}

func TestValidateDependenciesReportsMissingVersion(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/deps/stdx-1.0.0", 0o755))

	m := Manifest{Dependencies: map[string]string{"stdx": "^2.0.0"}}
	diags := ValidateDependencies(fs, "/deps", m)
	require.Len(t, diags, 1)
	assert.Equal(t, "stdx", diags[0].Dependency)
}

func TestValidateDependenciesSatisfied(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/deps/stdx-1.4.0", 0o755))

	m := Manifest{Dependencies: map[string]string{"stdx": "^1.0.0"}}
	diags := ValidateDependencies(fs, "/deps", m)
	assert.Empty(t, diags)
}

func TestValidateDependenciesBadConstraint(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := Manifest{Dependencies: map[string]string{"stdx": "not-a-constraint!!"}}
	diags := ValidateDependencies(fs, "/deps", m)
	require.Len(t, diags, 1)
}
