// Package config handles CLI configuration loading and management.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	// DefaultModel is used when no --model flag is given.
	DefaultModel string `yaml:"default_model"`
	// BaseURL overrides the API endpoint, for proxies and testing.
	BaseURL string `yaml:"base_url,omitempty"`
	// APIKeyRef names the keystore entry holding the API key.
	// Defaults to "venice".
	APIKeyRef string `yaml:"api_key_ref,omitempty"`
	// TimeoutSeconds overrides the default request timeout.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.venice/config.yaml
// - Windows: %USERPROFILE%\.venice\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		// Fallback to current directory
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".venice", "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing config file is not an error
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path, creating the
// directory if needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// KeyRef returns the keystore entry name for the API key.
func (c *Config) KeyRef() string {
	if c.APIKeyRef != "" {
		return c.APIKeyRef
	}
	return "venice"
}
