package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "replay.yml")
	data := `
browser:
  kind: firefox
  headless: false
timing:
  enabled: true
  mode: realistic
  speed_multiplier: 0.5
video:
  enabled: true
  dir: out/videos
timeout_ms: 15000
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "firefox", cfg.Browser.Kind)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Timing.Enabled)
	assert.Equal(t, "realistic", cfg.Timing.Mode)
	assert.Equal(t, 0.5, cfg.Timing.SpeedMultiplier)
	assert.True(t, cfg.Video.Enabled)
	assert.Equal(t, "out/videos", cfg.Video.Dir)
	assert.Equal(t, 15000, cfg.TimeoutMillis)
}

func TestNewConfigEnvOnlyDefaults(t *testing.T) {
	cfg, err := NewConfig("")
	require.NoError(t, err)

	assert.Equal(t, "chromium", cfg.Browser.Kind)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "fast", cfg.Timing.Mode)
	assert.Equal(t, 10000, cfg.TimeoutMillis)
	assert.Equal(t, 5000, cfg.Timing.MaxActionDelayMillis)
}

func TestNewConfigEnvOverride(t *testing.T) {
	t.Setenv("REPLAY_BROWSER", "webkit")
	t.Setenv("REPLAY_TIMEOUT_MS", "2500")

	cfg, err := NewConfig("")
	require.NoError(t, err)
	assert.Equal(t, "webkit", cfg.Browser.Kind)
	assert.Equal(t, 2500, cfg.TimeoutMillis)
}

func TestGetLogLevel(t *testing.T) {
	DebugLoggingEnabled = false
	assert.Equal(t, "INFO", GetLogLevel().String())
	DebugLoggingEnabled = true
	assert.Equal(t, "DEBUG", GetLogLevel().String())
	DebugLoggingEnabled = false
}
