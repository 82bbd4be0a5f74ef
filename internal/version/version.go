// Package version holds build information injected at link time.
package version

import "fmt"

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/configsync/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/arthur-debert/configsync/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/arthur-debert/configsync/internal/version.Date={{.Date}}
)

// String returns the version with its commit and build date
func String() string {
	return fmt.Sprintf("configsync %s (commit %s, built %s)", Version, Commit, Date)
}
