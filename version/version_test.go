package version

import (
	"strings"
	"testing"
)

func TestInfoString(t *testing.T) {
	info := Info{Version: "0.1.0"}
	if got := info.String(); got != "samuelizer version 0.1.0" {
		t.Errorf("unexpected banner %q", got)
	}

	info = Info{Version: "0.1.0", GitCommit: "abc1234", Dirty: true, BuildTime: "2026-01-02T03:04:05Z"}
	got := info.String()
	for _, want := range []string{"0.1.0", "abc1234-dirty", "2026-01-02T03:04:05Z"} {
		if !strings.Contains(got, want) {
			t.Errorf("banner %q missing %q", got, want)
		}
	}
}

func TestGetUsesLdflags(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version, GitCommit = "9.9.9", "deadbee"
	info := Get()
	if info.Version != "9.9.9" || info.GitCommit != "deadbee" {
		t.Errorf("expected ldflags values, got %+v", info)
	}
}
