// Package version carries the build version stamped into generated
// artifacts and printed by the CLI.
package version

// Version is the vellum release version. Overridden at build time via
// -ldflags "-X vellum/internal/version.Version=...".
var Version = "0.3.0"
