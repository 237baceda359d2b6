package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStateDirOverride(t *testing.T) {
	tmpDir := t.TempDir()
	override := filepath.Join(tmpDir, "custom-state")
	t.Setenv("CUSTOMRPC_STATE_DIR", override)

	dir, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir failed: %v", err)
	}
	if dir != override {
		t.Errorf("expected %s, got %s", override, dir)
	}

	// Directory must have been created
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("state dir was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("state dir is not a directory")
	}
}

func TestWellKnownFilePaths(t *testing.T) {
	dir := "/tmp/state"

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"lock", LockPath(dir), filepath.Join(dir, ".lock")},
		{"port", PortPath(dir), filepath.Join(dir, ".port")},
		{"status port", StatusPortPath(dir), filepath.Join(dir, "status.port")},
		{"config", ConfigPath(dir), filepath.Join(dir, "config.json")},
		{"profiles", ProfilesPath(dir), filepath.Join(dir, "profiles")},
		{"events db", EventsDBPath(dir), filepath.Join(dir, "events.db")},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, tc.got)
		}
	}
}
