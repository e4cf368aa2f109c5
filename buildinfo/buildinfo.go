// Package buildinfo provides build-time properties injected via ldflags:
//
//	go build -ldflags "-X github.com/nomis52/eventchain/buildinfo.version=v1.2.0 \
//	    -X github.com/nomis52/eventchain/buildinfo.gitCommit=$(git rev-parse HEAD) \
//	    -X github.com/nomis52/eventchain/buildinfo.buildTime=$(date -u +%FT%TZ)"
package buildinfo

import "fmt"

// Properties holds build-time properties injected via ldflags.
type Properties struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// Package-level variables for ldflags injection (unexported).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Get returns the current build properties.
func Get() Properties {
	return Properties{
		Version:   version,
		BuildTime: buildTime,
		GitCommit: gitCommit,
	}
}

// String returns a one-line summary, e.g. "dev (commit unknown, built unknown)".
func (p Properties) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", p.Version, p.GitCommit, p.BuildTime)
}

// LogArgs returns the properties as slog key/value pairs.
func (p Properties) LogArgs() []any {
	return []any{
		"version", p.Version,
		"build_time", p.BuildTime,
		"git_commit", p.GitCommit,
	}
}
