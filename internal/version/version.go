// Package version exposes the kw build version stamped at link time.
package version

// version is overwritten by -ldflags on release builds; dev builds keep
// the placeholder.
var version = "dev" //nolint:gochecknoglobals // ldflags requires package-level var

// String returns the current version.
func String() string {
	return version
}
