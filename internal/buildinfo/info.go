// Package buildinfo carries version information stamped into the tally
// binary at link time.
package buildinfo

var (
	// Version is set with -ldflags "-X github.com/cleared-dev/tally/internal/buildinfo.Version=...".
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)
