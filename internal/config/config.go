// Package config loads clipforge configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all clipforge configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Store   StoreConfig   `yaml:"store"`
}

// BackendConfig points at the generation backend.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	UserID  string `yaml:"user_id"`
	Timeout string `yaml:"timeout"` // whole-stream deadline, Go duration string; empty = none
}

// StoreConfig configures local conversation persistence.
type StoreConfig struct {
	Path     string `yaml:"path"`
	Debounce string `yaml:"debounce"` // save quiet period, Go duration string
}

// Default returns the built-in configuration.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
			UserID:  "default_user",
			Timeout: "5m",
		},
		Store: StoreConfig{
			Path:     filepath.Join(home, ".clipforge", "conversations.db"),
			Debounce: "1s",
		},
	}
}

// Load reads the config file at path, layered over defaults, then applies
// environment overrides. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Environment variables take precedence over the file so deployments can
// retarget the backend without editing config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLIPFORGE_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("CLIPFORGE_USER_ID"); v != "" {
		cfg.Backend.UserID = v
	}
	if v := os.Getenv("CLIPFORGE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
}

// TimeoutDuration parses the backend timeout, zero when unset or invalid.
func (c BackendConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// DebounceDuration parses the save quiet period, zero when unset or
// invalid (callers fall back to the store default).
func (c StoreConfig) DebounceDuration() time.Duration {
	if c.Debounce == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return 0
	}
	return d
}
