// Package config loads proof engine configuration from the environment or
// a YAML file. File values are applied first, environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Mindburn-Labs/fak/pkg/engine"
)

// Config holds tunable engine limits and logging.
type Config struct {
	MaxInvariants int     `yaml:"max_invariants"`
	TimeoutSecs   float64 `yaml:"timeout_secs"`
	LogLevel      string  `yaml:"log_level"`
}

// Load reads configuration from environment variables, falling back to
// engine defaults: FAK_MAX_INVARIANTS, FAK_TIMEOUT_SECS, FAK_LOG_LEVEL.
func Load() *Config {
	cfg := defaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile reads a YAML configuration file, then applies environment
// variable overrides on top.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := defaults()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Engine converts the loaded values into an engine.Config.
func (c *Config) Engine() engine.Config {
	return engine.Config{MaxInvariants: c.MaxInvariants, TimeoutSecs: c.TimeoutSecs}
}

func defaults() *Config {
	ec := engine.DefaultConfig()
	return &Config{
		MaxInvariants: ec.MaxInvariants,
		TimeoutSecs:   ec.TimeoutSecs,
		LogLevel:      "INFO",
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FAK_MAX_INVARIANTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxInvariants = n
		}
	}
	if v := os.Getenv("FAK_TIMEOUT_SECS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.TimeoutSecs = f
		}
	}
	if v := os.Getenv("FAK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}
