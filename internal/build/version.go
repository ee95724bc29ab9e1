package build

import "fmt"

// Set through -ldflags "-X github.com/rohmanhakim/cfcli/internal/build.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version with the commit hash appended, such as
// "1.0.0+abc123".
func FullVersion() string {
	return Version + "+" + Commit
}

// Describe is the line printed by the version command.
func Describe(program string) string {
	return fmt.Sprintf("%s %s (built %s)", program, FullVersion(), BuildTime)
}
