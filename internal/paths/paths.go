// Package paths resolves the per-user state directory and the well-known
// file names shared between the agent and forwarding CLI invocations.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// File names inside the state directory. The lock file and port file are the
// only cross-process shared resources; all access to them goes through
// internal/instance.
const (
	LockFile       = ".lock"
	PortFile       = ".port"
	StatusPortFile = "status.port"
	ConfigFile     = "config.json"
	ProfilesDir    = "profiles"
	EventsDB       = "events.db"
	LogsDir        = "logs"
)

// appDirName is the directory name under the OS config root.
const appDirName = "CustomRPCManager"

// StateDir returns the per-user state directory, creating it if needed.
//
// Windows: %APPDATA%\CustomRPCManager
// macOS:   ~/Library/Application Support/CustomRPCManager
// other:   $XDG_CONFIG_HOME/CustomRPCManager (default ~/.config/CustomRPCManager)
//
// CUSTOMRPC_STATE_DIR overrides the resolved directory; tests and multi-user
// setups point it at a scratch location.
func StateDir() (string, error) {
	if override := os.Getenv("CUSTOMRPC_STATE_DIR"); override != "" {
		if err := os.MkdirAll(override, 0700); err != nil {
			return "", fmt.Errorf("create state directory: %w", err)
		}
		return override, nil
	}

	base, err := configRoot()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(base, appDirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create state directory: %w", err)
	}
	return dir, nil
}

func configRoot() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return appData, nil
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(home, "AppData", "Roaming"), nil
	}
	return filepath.Join(home, ".config"), nil
}

// LockPath returns the instance lock file path inside dir.
func LockPath(dir string) string { return filepath.Join(dir, LockFile) }

// PortPath returns the command channel port file path inside dir.
func PortPath(dir string) string { return filepath.Join(dir, PortFile) }

// StatusPortPath returns the status stream port file path inside dir.
func StatusPortPath(dir string) string { return filepath.Join(dir, StatusPortFile) }

// ConfigPath returns the config file path inside dir.
func ConfigPath(dir string) string { return filepath.Join(dir, ConfigFile) }

// ProfilesPath returns the profile storage directory inside dir.
func ProfilesPath(dir string) string { return filepath.Join(dir, ProfilesDir) }

// EventsDBPath returns the event log database path inside dir.
func EventsDBPath(dir string) string { return filepath.Join(dir, EventsDB) }
