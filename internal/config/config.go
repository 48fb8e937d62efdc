// Package config provides configuration management for Lumen.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Home     string         `yaml:"home"`
	Network  NetworkConfig  `yaml:"network"`
	Security SecurityConfig `yaml:"security"`
	Claim    ClaimConfig    `yaml:"claim"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// NetworkConfig defines which ledger network the wallet talks to.
type NetworkConfig struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// SecurityConfig defines security settings.
type SecurityConfig struct {
	MemoryLock        bool `yaml:"memory_lock"`
	SessionTTLMinutes int  `yaml:"session_ttl_minutes"`
}

// ClaimConfig defines deposit claim loop settings.
type ClaimConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file. Defaults fill any
// omitted fields.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, lumenerr.WithDetails(lumenerr.ErrConfigInvalid, map[string]string{
			"parse": err.Error(),
		})
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks the configuration for values the rest of the wallet
// cannot work with.
func (c *Config) Validate() error {
	switch c.Network.Name {
	case "mainnet", "regtest":
	default:
		return lumenerr.WithDetails(lumenerr.ErrConfigInvalid, map[string]string{
			"network": c.Network.Name,
		})
	}

	if c.Security.SessionTTLMinutes < 0 {
		return lumenerr.WithDetails(lumenerr.ErrConfigInvalid, map[string]string{
			"session_ttl_minutes": "must not be negative",
		})
	}
	if c.Claim.IntervalSeconds < 0 {
		return lumenerr.WithDetails(lumenerr.ErrConfigInvalid, map[string]string{
			"interval_seconds": "must not be negative",
		})
	}

	return nil
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default lumen home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lumen"
	}
	return filepath.Join(home, ".lumen")
}
