package version

import (
	"fmt"
	"runtime/debug"
)

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/rocas/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/arthur-debert/rocas/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/arthur-debert/rocas/internal/version.Date={{.Date}}
)

// Info describes the running build
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the build information. Builds made with go install carry no
// ldflags, so the module version and VCS revision are read from the binary.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s, %s)", i.Version, i.Commit, i.Date)
}
