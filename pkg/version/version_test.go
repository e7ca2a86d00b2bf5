package version

import (
	"strings"
	"testing"
)

func setBuild(t *testing.T, version, commit, buildTime, dirty string) {
	t.Helper()
	origVersion, origCommit, origTime, origDirty := Version, GitCommit, BuildTime, GitDirty
	t.Cleanup(func() {
		Version, GitCommit, BuildTime, GitDirty = origVersion, origCommit, origTime, origDirty
	})
	Version, GitCommit, BuildTime, GitDirty = version, commit, buildTime, dirty
}

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		built   string
		dirty   string
		want    string
	}{
		{"release", "v0.3.0", "abc1234", "2025-01-01T12:00:00Z", "false", "parkspot v0.3.0 (abc1234 2025-01-01T12:00:00Z)"},
		{"dirty tree", "v0.3.0", "abc1234", "2025-01-01T12:00:00Z", "true", "parkspot v0.3.0 (abc1234-dirty 2025-01-01T12:00:00Z)"},
		{"unset", "dev", "unknown", "unknown", "", "parkspot dev (unknown unknown)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBuild(t, tt.version, tt.commit, tt.built, tt.dirty)
			if got := GetVersion("parkspot"); got != tt.want {
				t.Errorf("GetVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCurrent(t *testing.T) {
	setBuild(t, "v1.2.3", "abc1234", "2025-01-15T10:00:00Z", "true")

	info := Current()
	if info.Version != "v1.2.3" || info.Commit != "abc1234" || !info.Dirty {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.GoVersion == "" {
		t.Error("expected go version to be set")
	}
}

func TestInfoDetail(t *testing.T) {
	info := Info{Version: "v1.2.3", Commit: "abc1234", BuildTime: "2025-01-15T10:00:00Z", GoVersion: "go1.24.0"}

	for _, field := range []string{
		"Version:    v1.2.3",
		"Git commit: abc1234 (clean)",
		"Built:      2025-01-15T10:00:00Z",
		"Go version: go1.24.0",
	} {
		if !strings.Contains(info.Detail(), field) {
			t.Errorf("Detail() missing %q\nGot:\n%s", field, info.Detail())
		}
	}

	info.Dirty = true
	if !strings.Contains(info.Detail(), "(dirty)") {
		t.Errorf("Detail() should report a dirty tree\nGot:\n%s", info.Detail())
	}
}
