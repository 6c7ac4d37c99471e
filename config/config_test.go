package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aouyang1/albumflow/album"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFiles()
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "", cfg.DBDSN)
	assert.Equal(t, album.DefaultStrategyTemplates, cfg.FetchStrategies)
	assert.Equal(t, 1000, cfg.MinBodyLength)
	assert.Equal(t, 30, cfg.MinURLLength)
	assert.Equal(t, 3*time.Second, cfg.QuietPeriod)
	assert.False(t, cfg.RemoteEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AF_ADDR", ":9000")
	t.Setenv("AF_LOG_LEVEL", "debug")
	t.Setenv("AF_FETCH_STRATEGIES", "direct, https://relay.example.com/?u={url} ,")
	t.Setenv("AF_FETCH_TIMEOUT", "5s")
	t.Setenv("AF_PRELOAD_RATE", "0.5")
	t.Setenv("AF_S3_BUCKET", "frames")

	cfg, err := LoadFiles()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"direct", "https://relay.example.com/?u={url}"}, cfg.FetchStrategies)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, rate.Limit(0.5), cfg.PreloadRate)
	assert.True(t, cfg.RemoteEnabled())
	assert.Equal(t, "frames", cfg.RemoteOptions().Bucket)
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	t.Setenv("AF_MIN_BODY_LENGTH", "lots")
	t.Setenv("AF_QUIET_PERIOD", "-1s")
	t.Setenv("AF_LOG_LEVEL", "loud")

	cfg, err := LoadFiles()
	require.NoError(t, err)

	assert.Equal(t, album.DefaultMinBodyLength, cfg.MinBodyLength)
	assert.Equal(t, 3*time.Second, cfg.QuietPeriod)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadRejectsBadStrategy(t *testing.T) {
	t.Setenv("AF_FETCH_STRATEGIES", "https://relay.example.com/")
	_, err := LoadFiles()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AF_SESSION_IDLE_TIMEOUT=2m\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("AF_SESSION_IDLE_TIMEOUT") })

	cfg, err := LoadFiles(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.SessionIdleTimeout)
}
