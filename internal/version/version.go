// Package version holds build metadata stamped in with -ldflags.
package version

import "fmt"

var (
	// Version is the release tag, e.g. -X github.com/ManuGH/chuck/internal/version.Version=v0.3.0
	Version = "v0.1.0-dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String formats all three fields for --version output.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
