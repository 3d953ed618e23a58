// Package version reports build information for the factory CLI.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/pair-factory/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/pair-factory/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/pair-factory/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/factory
package version

import "runtime"

// Build-time variables (set via ldflags)
var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "dev"

	// Commit is the git commit hash (short form)
	Commit = "unknown"

	// BuildTime is the UTC build timestamp (ISO 8601)
	BuildTime = "unknown"
)

// BuildInfo is the structured form printed by `factory version`.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Info returns the current build information.
func Info() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}
