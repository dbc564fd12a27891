package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, int64(65536), cfg.ReadLimit)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 720*time.Hour, cfg.EventRetention)
	assert.Equal(t, 120*time.Second, cfg.PresenceTTL)
	assert.Equal(t, "disconnect", cfg.Backpressure)
	assert.Empty(t, cfg.DBURL)
	assert.False(t, cfg.Healthcheck)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"),
		[]byte("port: 7000\nlog_level: debug\nsend_queue: 16\nbackpressure: drop\n"), 0o644))
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("RELAY_GC_INTERVAL", "10m")
	t.Setenv("SIGNALING_DB_URL", "postgres://relay@localhost/relay")

	cfg, err := Load([]string{"--port", "7100", "--healthcheck"})
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, 16, cfg.SendQueue)
	assert.Equal(t, "drop", cfg.Backpressure)
	assert.Equal(t, 10*time.Minute, cfg.GCInterval)
	assert.Equal(t, "postgres://relay@localhost/relay", cfg.DBURL)
	assert.True(t, cfg.Healthcheck)
}

func TestLoadFileWithoutFlagKeepsFilePort(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7000\n"), 0o644))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	chdirTemp(t)
	_, err := Load([]string{"--config", "nope.yaml"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("RELAY_BACKPRESSURE", "kick")
	_, err := Load(nil)
	assert.Error(t, err)
}
