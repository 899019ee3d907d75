package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 1111\n"), 0o644))

	reloaded := make(chan Config, 1)
	stop, err := Watch(path, zap.NewNop(), func(c Config) {
		reloaded <- c
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 2222\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 2222, cfg.Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}
}
