// Package version exposes build metadata injected with
// -ldflags "-X github.com/Yukasama/haus/internal/version.Version=...".
package version

import "fmt"

// Name is reported by /health and as the OTel service version prefix
const Name = "haus"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo is the JSON shape returned by the debug endpoint
type BuildInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

func Info() BuildInfo {
	return BuildInfo{Name: Name, Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
}

// String renders "haus dev (unknown)"
func String() string {
	return fmt.Sprintf("%s %s (%s)", Name, Version, GitCommit)
}
