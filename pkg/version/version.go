// Package version holds build metadata injected at link time.
package version

import "runtime"

var (
	// Version is the release version, set via -ldflags.
	Version = "dev"
	// GitCommit is the build commit, set via -ldflags.
	GitCommit = "unknown"
)

// GoVersion reports the toolchain the binary was built with.
func GoVersion() string {
	return runtime.Version()
}
