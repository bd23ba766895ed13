// Package version carries build-time stamped version information.
// The variables are overridden at build time via -ldflags, e.g.
//
//	go build -ldflags "-X github.com/Sumatoshi-tech/luapack/pkg/version.Version=v1.2.0"
package version

import "fmt"

var (
	// Version is the release version of the binary.
	Version = "dev"
	// Commit is the Git commit hash the binary was built from.
	Commit = "unknown"
	// Date is the build timestamp.
	Date = "unknown"
)

// String formats the full version line shown by the version command.
func String() string {
	return fmt.Sprintf("luapack %s (commit: %s, built: %s)", Version, Commit, Date)
}
