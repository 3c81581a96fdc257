// Package version carries build metadata stamped at link time.
package version

// Set via -ldflags "-X github.com/libriscan/libriscan/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, commit and build date.
func Info() (version, commit, date string) {
	return Version, GitCommit, BuildDate
}
