package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default log level = %q", cfg.LogLevel)
	}

	// The file must have been written
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.SetLastProfile("Gaming"); err != nil {
		t.Fatalf("set last profile: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.LastProfile != "Gaming" {
		t.Errorf("last profile = %q, expected Gaming", reloaded.LastProfile)
	}
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load of corrupt file should fall back to defaults: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("corrupt file did not fall back to defaults")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.SetLastProfile("FromFile"); err != nil {
		t.Fatalf("save: %v", err)
	}

	t.Setenv("CUSTOMRPC_LAST_PROFILE", "FromEnv")
	t.Setenv("CUSTOMRPC_AUTO_CONNECT", "true")

	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cfg.LastProfile != "FromEnv" {
		t.Errorf("env override ignored: %q", cfg.LastProfile)
	}
	if !cfg.AutoConnect {
		t.Error("bool env override ignored")
	}
}
