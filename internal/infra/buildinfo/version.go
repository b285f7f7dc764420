// Package buildinfo exposes the version stamped into the binary.
//
// Release builds inject the variables through ldflags:
//
//	go build -ldflags "-X github.com/yndnr/tablesync-go/internal/infra/buildinfo.Version=v1.2.0"
//
// Source builds fall back to the VCS metadata the Go toolchain embeds.
package buildinfo

import "runtime/debug"

var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the git revision the binary was built from.
	Commit = "unknown"

	// BuildTime is the commit or build timestamp.
	BuildTime = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" {
				Commit = s.Value
			}
		case "vcs.time":
			if BuildTime == "unknown" {
				BuildTime = s.Value
			}
		}
	}
}

// String renders the stamp as "version (commit) built <time>" with the
// commit shortened to twelve characters.
func String() string {
	commit := Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return Version + " (" + commit + ") built " + BuildTime
}
