// Package config loads project settings from safeguard.yml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/safeguard/internal/safety"
)

// ErrNoCredential is returned by Validate when no API key is configured.
var ErrNoCredential = errors.New("config: no API key (set apiKey or SAFEGUARD_API_KEY)")

// ProjectConfig holds settings loaded from safeguard.yml, overlaid by
// SAFEGUARD_* environment variables.
type ProjectConfig struct {
	APIKey     string        `yaml:"apiKey,omitempty" env:"SAFEGUARD_API_KEY"`
	BaseURL    string        `yaml:"baseURL,omitempty" env:"SAFEGUARD_BASE_URL"`
	Timeout    time.Duration `yaml:"timeout,omitempty" env:"SAFEGUARD_TIMEOUT"`
	MaxRetries int           `yaml:"maxRetries,omitempty" env:"SAFEGUARD_MAX_RETRIES"` // 0 keeps the default, < 0 disables
	UserAgent  string        `yaml:"userAgent,omitempty" env:"SAFEGUARD_USER_AGENT"`
	Verbose    bool          `yaml:"verbose,omitempty" env:"SAFEGUARD_VERBOSE"`
	MCPAddr    string        `yaml:"mcpAddr,omitempty" env:"SAFEGUARD_MCP_ADDR"`
}

// Load reads safeguard.yml or safeguard.yaml from dir, then applies any
// SAFEGUARD_* environment variables on top. A missing file is not an error.
func Load(dir string) (*ProjectConfig, error) {
	cfg := &ProjectConfig{}
	for _, name := range []string{"safeguard.yml", "safeguard.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", name, err)
		}
		break
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables. Fields whose
// variable is unset keep their current value.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Validate reports whether the configuration can build a live client.
func (c *ProjectConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrNoCredential
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// SafetyConfig converts the settings into client configuration.
func (c *ProjectConfig) SafetyConfig() *safety.Config {
	retries := c.MaxRetries
	switch {
	case retries == 0:
		retries = safety.DefaultMaxRetries
	case retries < 0:
		retries = 0
	}
	return &safety.Config{
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxRetries: retries,
		UserAgent:  c.UserAgent,
	}
}
