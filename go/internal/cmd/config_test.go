package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 4, cfg.Scheduler.NumWorkers)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, ":8082", cfg.ListenAddr)
}

func TestLoadConfig_OverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scheduler:
  interval: 30s
  num_workers: 8
listen_addr: ":9090"
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Interval)
	assert.Equal(t, 8, cfg.Scheduler.NumWorkers)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	// Untouched sections keep their defaults.
	assert.Equal(t, "gridiron.notices", cfg.NATS.SubjectPrefix)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler: ["), 0o644))

	_, err := loadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config")
}
