package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetDir(dir)
	t.Cleanup(func() { SetDir("") })
	return dir
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "ws://localhost:34987/ws", c.ServerURL())
	assert.Equal(t, "http://localhost:34987/theme", c.ThemeURL())
	assert.Equal(t, time.Second, c.ReconnectBackoff)
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	useTempDir(t)

	c := Default()
	require.NoError(t, c.Load())
	assert.Equal(t, Default(), c)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := useTempDir(t)

	c := Default()
	c.ServerPort = 40000
	c.ReconnectBackoff = 2 * time.Second
	c.MouseScreenPlacement = PlacementLiteral
	require.NoError(t, c.Save())

	_, err := os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	loaded := Default()
	require.NoError(t, loaded.Load())
	assert.Equal(t, 40000, loaded.ServerPort)
	assert.Equal(t, 2*time.Second, loaded.ReconnectBackoff)
	assert.Equal(t, PlacementLiteral, loaded.MouseScreenPlacement)
}

func TestLoadPartialFile(t *testing.T) {
	dir := useTempDir(t)
	yamlText := "server_port: 5555\nreconnect_backoff: 250ms\nhide_on_focus_lost: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlText), 0600))

	c := Default()
	require.NoError(t, c.Load())
	assert.Equal(t, 5555, c.ServerPort)
	assert.Equal(t, 250*time.Millisecond, c.ReconnectBackoff)
	assert.False(t, c.HideOnFocusLost)
	assert.Equal(t, 800, c.WindowWidth)
}

func TestLoadRejectsGarbage(t *testing.T) {
	dir := useTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server_port: [1, 2"), 0600))

	c := Default()
	assert.Error(t, c.Load())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty host", func(c *Config) { c.ServerHost = "" }},
		{"port zero", func(c *Config) { c.ServerPort = 0 }},
		{"port too big", func(c *Config) { c.ServerPort = 70000 }},
		{"zero backoff", func(c *Config) { c.ReconnectBackoff = 0 }},
		{"zero width", func(c *Config) { c.WindowWidth = 0 }},
		{"negative padding", func(c *Config) { c.FallbackPaddingTop = -1 }},
		{"unknown placement", func(c *Config) { c.MouseScreenPlacement = "corner" }},
		{"zero poll", func(c *Config) { c.ParentPollInterval = 0 }},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSanitize(t *testing.T) {
	c := Default()
	c.ServerPort = -3
	c.MouseScreenPlacement = "nowhere"

	reset := c.Sanitize()
	assert.ElementsMatch(t, []string{"server_port", "mouse_screen_placement"}, reset)
	assert.NoError(t, c.Validate())
	assert.Equal(t, DefaultPort, c.ServerPort)
}

func TestSanitizeLogLevel(t *testing.T) {
	c := Default()
	c.LogLevel = "verbose"
	require.ErrorIs(t, c.Validate(), ErrInvalidConfig)

	assert.Equal(t, []string{"log_level"}, c.Sanitize())
	assert.Equal(t, "info", c.LogLevel)
	assert.NoError(t, c.Validate())

	for _, level := range []string{"", "debug", "warn", "error"} {
		c.LogLevel = level
		assert.Empty(t, c.Sanitize(), level)
	}
}

func TestHandEditedLogLevelFallsBack(t *testing.T) {
	dir := useTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log_level: verbose\nserver_port: 4000\n"), 0600))

	c, err := loadOrDefault()
	require.NoError(t, err)
	assert.Equal(t, []string{"log_level"}, c.Sanitize())
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 4000, c.ServerPort)
}

func TestLoadOrDefaultDiscardsBrokenFile(t *testing.T) {
	dir := useTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server_port: 4000\nserver_host: [a, b"), 0600))

	c, err := loadOrDefault()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.yaml")
	assert.Equal(t, Default(), c)
}

func TestGetRecordsLoadError(t *testing.T) {
	dir := useTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server_port: ["), 0600))
	once = sync.Once{}
	t.Cleanup(func() { once = sync.Once{}; instance, loadErr = nil, nil })

	c := Get()
	assert.Equal(t, Default(), c)
	assert.Error(t, LoadErr())
}

func TestDirEnvOverride(t *testing.T) {
	SetDir("")
	t.Setenv("SPOTLIGHT_CONFIG_DIR", "/tmp/spotlight-test")

	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/spotlight-test", dir)

	logDir, err := LogDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/spotlight-test", "log"), logDir)
}
