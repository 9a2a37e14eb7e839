// Package version reports the build identity of the gitanalyzer binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at link time with -ldflags "-X github.com/Sumatoshi-tech/gitanalyzer/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = "<unknown>"
)

const revisionKey = "vcs.revision"

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		if setting.Key == revisionKey && Commit == "<unknown>" {
			Commit = setting.Value
		}
	}
}

// String formats the build identity for humans.
func String() string {
	return fmt.Sprintf("gitanalyzer %s (commit: %s, built: %s)", Version, Commit, Date)
}
