// Package version carries build metadata injected at link time via
// -ldflags "-X github.com/steadyframe/stabilise/internal/version.Version=...".
package version

var (
	// Version is the release version, "dev" for local builds.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
