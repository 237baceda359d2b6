// Package config loads and persists application settings: a JSON file in
// the state directory with environment-variable overrides layered on top.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config holds the persisted application settings. Environment variables
// override file values at load time but are never written back.
type Config struct {
	LastProfile        string `env:"CUSTOMRPC_LAST_PROFILE"         json:"last_profile"`
	AutoConnect        bool   `env:"CUSTOMRPC_AUTO_CONNECT"         json:"auto_connect"`
	AutoConnectProfile string `env:"CUSTOMRPC_AUTO_CONNECT_PROFILE" json:"auto_connect_profile"`
	LogLevel           string `env:"CUSTOMRPC_LOG_LEVEL"            json:"log_level"`

	path string
}

// Default returns the settings written on first run.
func Default() Config {
	return Config{LogLevel: "info"}
}

// Load reads the config file at path, creating it with defaults when absent.
// An unreadable or corrupt file falls back to defaults rather than blocking
// startup. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path) //nolint:gosec // G304 - path from the state directory
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, &cfg); jsonErr != nil {
			cfg = Default()
			cfg.path = path
		}
	case os.IsNotExist(err):
		if saveErr := cfg.Save(); saveErr != nil {
			return nil, saveErr
		}
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment overrides: %w", err)
	}
	return &cfg, nil
}

// Save writes the current settings back to the config file.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SetLastProfile persists the most recently loaded profile name.
func (c *Config) SetLastProfile(name string) error {
	c.LastProfile = name
	return c.Save()
}
