package version

import "fmt"

// Version contains the application version information.
// Set it with build-time ldflags:
// go build -ldflags "-X git.home.luguber.info/inful/youmu/internal/version.Version=v0.2.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the one-line form printed by --version.
func String() string {
	return fmt.Sprintf("youmu %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
