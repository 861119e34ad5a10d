package app

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Stamped by the release build:
//
//	go build -ldflags "-X .../internal/app.GitTag=v1.0.0 -X .../internal/app.GitCommit=abc123" ./cmd
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = ""
	BuildTime = "unknown"
)

// VersionInfo describes the running soundscape binary.
type VersionInfo struct {
	Version   string
	GitCommit string
	GitTag    string
	BuildTime string
	GoVersion string
}

// GetVersionInfo collects the stamped values. An unstamped binary installed
// with `go install module@version` reports the module version instead of "dev".
func GetVersionInfo() VersionInfo {
	v := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GitTag:    GitTag,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if v.Version == "dev" && v.GitTag == "" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v.Version = bi.Main.Version
		}
	}
	return v
}

// Short is the tag when present, otherwise the version.
func (v VersionInfo) Short() string {
	if v.GitTag != "" {
		return v.GitTag
	}
	return v.Version
}

// FullString is logged at startup and printed by the version command.
func (v VersionInfo) FullString() string {
	return fmt.Sprintf("Soundscape %s (commit: %s, built: %s, %s)", v.Short(), v.GitCommit, v.BuildTime, v.GoVersion)
}
