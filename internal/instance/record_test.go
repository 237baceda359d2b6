package instance

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPortFileRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".port")

	if err := WritePortFile(path, 43210); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	port, ok := ReadPortFile(path)
	if !ok {
		t.Fatal("expected port to be readable")
	}
	if port != 43210 {
		t.Errorf("expected port 43210, got %d", port)
	}

	// No temp file left behind from the atomic write
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestReadPortFileTolerance(t *testing.T) {
	tmpDir := t.TempDir()

	cases := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace", "  \n"},
		{"garbage", "hello"},
		{"zero", "0"},
		{"negative", "-1"},
		{"too large", "70000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tc.name+".port")
			if err := os.WriteFile(path, []byte(tc.content), 0600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, ok := ReadPortFile(path); ok {
				t.Errorf("content %q should read as no owner reachable", tc.content)
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		if _, ok := ReadPortFile(filepath.Join(tmpDir, "nope.port")); ok {
			t.Error("missing file should read as no owner reachable")
		}
	})
}

func TestReadPortFileTrimsWhitespace(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".port")
	if err := os.WriteFile(path, []byte(" 8080 \n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	port, ok := ReadPortFile(path)
	if !ok || port != 8080 {
		t.Errorf("expected 8080, got %d (ok=%v)", port, ok)
	}
}

func TestRemovePortFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".port")

	// Removing a missing file is fine
	if err := RemovePortFile(path); err != nil {
		t.Fatalf("remove of missing file failed: %v", err)
	}

	if err := WritePortFile(path, 9000); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := RemovePortFile(path); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("port file still present after removal")
	}
}
