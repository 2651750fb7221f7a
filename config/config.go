// Package config holds the persisted user configuration and the model
// catalog. Configuration lives in a YAML file under the user config dir and
// is read-mostly: the router and agents consume a loaded snapshot.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AuthType selects how a provider CLI authenticates.
type AuthType string

const (
	AuthAPIKey       AuthType = "api_key"
	AuthSubscription AuthType = "subscription"
)

// ProviderConfig is the per-provider section of the config file.
type ProviderConfig struct {
	AuthType AuthType `yaml:"auth_type,omitempty"`
}

// ProxyConfig controls outbound proxying for spawned provider CLIs.
type ProxyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
}

// Config is the full persisted configuration.
type Config struct {
	Providers        map[string]ProviderConfig `yaml:"providers,omitempty"`
	Proxy            ProxyConfig               `yaml:"proxy,omitempty"`
	DefaultModel     string                    `yaml:"default_model,omitempty"`
	EnabledProviders []string                  `yaml:"enabled_providers,omitempty"`
}

// AuthTypeFor returns the configured auth type for a provider, defaulting to
// subscription when unset.
func (c *Config) AuthTypeFor(provider string) AuthType {
	if c != nil {
		if pc, ok := c.Providers[provider]; ok && pc.AuthType != "" {
			return pc.AuthType
		}
	}
	return AuthSubscription
}

// ProxyURL returns the proxy URL when proxying is enabled, else "".
func (c *Config) ProxyURL() string {
	if c != nil && c.Proxy.Enabled {
		return c.Proxy.URL
	}
	return ""
}

// DefaultPath returns the default config file location,
// <user config dir>/craft-agents/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "craft-agents", "config.yaml"), nil
}

// Load reads the config at path. A missing file yields a zero config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
