// Package config loads and hot-reloads the server's own settings
// (listen port, rate-limiter cap, history size, default thresholds) —
// distinct from a test's Config, which is per-request and lives in
// internal/loadmodel. Shaped after vaultaire's internal/config
// ServerConfig/EngineConfig split, trimmed to what this domain needs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FairForge/loadforge/internal/loadmodel"
)

// Config is the server's own settings, loaded from YAML and
// overridable by environment variables.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	RateLimiter RateLimiterConfig `yaml:"rateLimiter"`
	History     HistoryConfig     `yaml:"history"`
	Defaults    DefaultsConfig    `yaml:"defaults"`
}

// ServerConfig controls the HTTP binder.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metricsPort"`
	LogLevel    string `yaml:"logLevel"`
}

// RateLimiterConfig configures the process-wide sliding-window cap
// (spec §4.1). Window is a duration string (e.g. "1s") in YAML.
type RateLimiterConfig struct {
	Window       time.Duration `yaml:"window"`
	CapPerWindow int           `yaml:"capPerWindow"`
}

// HistoryConfig holds the history size read from YAML. The engine's
// completed-test ring does not read it; its bound is the fixed
// history.MaxRecords.
type HistoryConfig struct {
	MaxRecords int `yaml:"maxRecords"`
}

// DefaultsConfig holds default thresholds read from YAML. Nothing in
// this module applies them to started tests; a test without its own
// thresholds runs with none.
type DefaultsConfig struct {
	Thresholds *loadmodel.Thresholds `yaml:"thresholds"`
}

// Default returns the built-in configuration, matching spec §4.1's
// 1000ms/500-admission window and a 100-record history ring.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:        8080,
			MetricsPort: 9090,
			LogLevel:    "info",
		},
		RateLimiter: RateLimiterConfig{
			Window:       1000 * time.Millisecond,
			CapPerWindow: 500,
		},
		History: HistoryConfig{
			MaxRecords: 100,
		},
	}
}

// Load reads and parses a YAML config file, starting from Default()
// so a partial file only overrides what it mentions.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	LoadFromEnv(&cfg)
	return cfg, nil
}
