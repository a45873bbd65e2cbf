// Package version reports the build version cjls was compiled with,
// stamped by the release pipeline via -ldflags, the same seam the
// teacher's internal/version package exposes. cjls drops the teacher's
// remote upgrade-check (Informer.CanUpgrade): a language server core
// embedded in an editor has no business phoning an external URL on
// every startup, and nothing in this repo's scope calls for it.
package version

// version is set at build time with:
//
//	-ldflags "-X cjls/internal/version.version=$(VERSION)"
var version = "dev"

// GetVersion returns the build version, or "dev" for a local build.
func GetVersion() string {
	return version
}
