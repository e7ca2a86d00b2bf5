package version

import (
	"fmt"
	"runtime"
)

// Build information, set with -ldflags "-X github.com/kamikazebr/parkspot/pkg/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	// GitDirty is "true" when the tree had uncommitted changes
	GitDirty = ""
)

// Info is the build description reported by the CLI and the /health endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Dirty     bool   `json:"dirty,omitempty"`
	GoVersion string `json:"go_version"`
}

// Current reads the link-time variables.
func Current() Info {
	return Info{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildTime,
		Dirty:     GitDirty == "true",
		GoVersion: runtime.Version(),
	}
}

// Short formats as "parkspot 0.1.0 (abc1234 2025-11-14T21:51:00Z)".
func (i Info) Short(name string) string {
	commit := i.Commit
	if i.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s %s (%s %s)", name, i.Version, commit, i.BuildTime)
}

func (i Info) Detail() string {
	tree := "clean"
	if i.Dirty {
		tree = "dirty"
	}
	return fmt.Sprintf(`Version:    %s
Git commit: %s (%s)
Built:      %s
Go version: %s`,
		i.Version,
		i.Commit,
		tree,
		i.BuildTime,
		i.GoVersion,
	)
}

// GetVersion is Current().Short(name)
func GetVersion(name string) string {
	return Current().Short(name)
}
