package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesSpecConstants(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1000*time.Millisecond, cfg.RateLimiter.Window)
	assert.Equal(t, 500, cfg.RateLimiter.CapPerWindow)
	assert.Equal(t, 100, cfg.History.MaxRecords)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_PartialFileOverridesOnlyMentionedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 500, cfg.RateLimiter.CapPerWindow, "unmentioned fields keep their defaults")
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv_OverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o644))
	t.Setenv("LOADFORGE_PORT", "7000")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("LOADFORGE_TEST_KEY", "set-value")
	assert.Equal(t, "set-value", GetEnvOrDefault("LOADFORGE_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefault("LOADFORGE_UNSET_KEY", "fallback"))
}
