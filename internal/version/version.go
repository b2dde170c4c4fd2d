// Package version exposes the build version.
package version

import "strings"

// version is overridden at build time via
// -ldflags "-X github.com/ShayCichocki/relay/internal/version.version=v1.2.3".
var version = "0.1.0-dev"

// Get returns the current version, with whitespace trimmed.
func Get() string {
	return strings.TrimSpace(version)
}
