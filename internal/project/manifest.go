// Package project implements the package-DAG and compilation model
// (component B): manifest loading, digest-based staleness, topological
// compile ordering, and the two-AST-view-per-file bookkeeping every
// feature handler queries through (spec §4.B).
package project

import (
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
)

// ManifestFile is the name of a Cangjie package manifest, mirroring the
// teacher's special-cased `crossplane.yaml` (`handleMeta`/`checkMetaFile`
// watch for exactly one well-known filename per workspace root).
const ManifestFile = "cjpm.toml"

const (
	errReadManifest  = "failed to read " + ManifestFile
	errParseManifest = "failed to parse " + ManifestFile
	errBadConstraint = "invalid dependency version constraint"
)

// Manifest is the decoded form of a project's cjpm.toml: module name,
// source roots to scan for packages, and declared dependency version
// constraints.
type Manifest struct {
	Package struct {
		Name       string   `toml:"name"`
		SourceDirs []string `toml:"source_dirs"`
	} `toml:"package"`
	Dependencies map[string]string `toml:"dependencies"`
}

// SourceRoots returns the manifest's configured source directories,
// defaulting to "src" when none are declared.
func (m Manifest) SourceRoots() []string {
	if len(m.Package.SourceDirs) == 0 {
		return []string{"src"}
	}
	return m.Package.SourceDirs
}

// LoadManifest reads and decodes `<root>/cjpm.toml`.
func LoadManifest(fs afero.Fs, root string) (Manifest, error) {
	var m Manifest
	b, err := afero.ReadFile(fs, filepath.Join(root, ManifestFile))
	if err != nil {
		return m, errors.Wrap(err, errReadManifest)
	}
	if _, err := toml.Decode(string(b), &m); err != nil {
		return m, errors.Wrap(err, errParseManifest)
	}
	return m, nil
}

// ManifestDiagnostic describes a problem found while validating a
// manifest's dependency constraints against what's available on disk,
// rendered as a file-level diagnostic rather than surfaced as an error
// (spec §4.B: "a mismatch produces a manifest-file diagnostic instead of
// a panic").
type ManifestDiagnostic struct {
	Dependency string
	Message    string
}

// AvailableVersions reports, for each subdirectory of depRoot named
// "<dep>-<semver>", the versions found for dep. This mirrors module
// caches laid out by Cangjie's package manager on disk.
func AvailableVersions(fs afero.Fs, depRoot, dep string) []*semver.Version {
	entries, err := afero.ReadDir(fs, depRoot)
	if err != nil {
		return nil
	}
	var out []*semver.Version
	prefix := dep + "-"
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		v, err := semver.NewVersion(name[len(prefix):])
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	sort.Sort(sort.Reverse(byVersion(out)))
	return out
}

type byVersion []*semver.Version

func (v byVersion) Len() int           { return len(v) }
func (v byVersion) Less(i, j int) bool { return v[i].LessThan(v[j]) }
func (v byVersion) Swap(i, j int)      { v[i], v[j] = v[j], v[i] }

// ValidateDependencies checks every manifest dependency's constraint
// against the versions available under depRoot, following
// `validateVersion`/`versionMatch` adapted from OCI tag matching to
// on-disk module versions. Dependencies with no satisfying version
// produce a ManifestDiagnostic instead of failing the load.
func ValidateDependencies(fs afero.Fs, depRoot string, m Manifest) []ManifestDiagnostic {
	var diags []ManifestDiagnostic
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := m.Dependencies[name]
		constraint, err := semver.NewConstraint(raw)
		if err != nil {
			diags = append(diags, ManifestDiagnostic{Dependency: name, Message: errBadConstraint + ": " + raw})
			continue
		}
		if !versionMatch(constraint, AvailableVersions(fs, depRoot, name)) {
			diags = append(diags, ManifestDiagnostic{
				Dependency: name,
				Message:    "no version of " + name + " on disk satisfies constraint " + raw,
			})
		}
	}
	return diags
}

// versionMatch reports whether any of the available versions satisfies
// constraint, newest first.
func versionMatch(constraint *semver.Constraints, available []*semver.Version) bool {
	for _, v := range available {
		if constraint.Check(v) {
			return true
		}
	}
	return false
}

// manifestExists is a small Stat wrapper reporting whether the manifest
// file exists under root.
func manifestExists(fs afero.Fs, root string) bool {
	_, err := fs.Stat(filepath.Join(root, ManifestFile))
	return err == nil
}
