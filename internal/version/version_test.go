package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	tests := []struct {
		name   string
		commit string
		want   string
	}{
		{"unknown commit", "unknown", "2.1.0"},
		{"short commit ignored", "abc", "2.1.0"},
		{"full hash shortened", "abc1234567890", "2.1.0 (abc1234)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit = "2.1.0", tt.commit
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = origVersion, origCommit, origDate })

	Version, Commit, BuildDate = "2.1.0", "deadbeef", "2026-01-02"
	got := Full()
	for _, part := range []string{"revue version 2.1.0", "Commit: deadbeef", "Built: 2026-01-02"} {
		if !strings.Contains(got, part) {
			t.Errorf("Full() = %q, missing %q", got, part)
		}
	}
}
