// Package version holds build-time version information.
package version

// Version is the application version, overridden at build time via
// -ldflags "-X github.com/sydlexius/melisma/internal/version.Version=...".
var Version = "dev"

// Commit is the git commit hash, overridden at build time.
var Commit = "unknown"
