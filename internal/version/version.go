// Package version holds build metadata injected at link time.
package version

// Version and Commit are overridden via -ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
)
