package version

import "fmt"

// Version and BuildDate are overridden at build time with -ldflags "-X".
var Version = "0.1.0"
var BuildDate = "2025-03-01"

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}

// String returns the version line printed by the CLI.
func String() string {
	return fmt.Sprintf("keydiff %s (built %s)", Version, BuildDate)
}
