package buildinfo

import "fmt"

// Set at link time with -ldflags "-X .../buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("cursior %s (commit=%s, date=%s)", Version, Commit, Date)
}
