package config

import (
	"os"
	"strconv"
)

// LoadFromEnv overrides cfg with LOADFORGE_PORT, LOADFORGE_LOG_LEVEL
// and LOADFORGE_RATE_LIMITER_CAP when they are set, applied after YAML
// so the environment always wins.
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("LOADFORGE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if logLevel := os.Getenv("LOADFORGE_LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}

	if cap := os.Getenv("LOADFORGE_RATE_LIMITER_CAP"); cap != "" {
		if c, err := strconv.Atoi(cap); err == nil {
			cfg.RateLimiter.CapPerWindow = c
		}
	}
}

// GetEnvOrDefault returns the environment variable's value, or
// defaultValue if it is unset or empty.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
