// Package version exposes the build version. The value is injected at
// build time via -ldflags.
package version

var version = "v0.0.0-dev"

// Value returns the build version string.
func Value() string {
	return version
}
