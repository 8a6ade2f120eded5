package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid config")

// Placement modes for commands positioned on the mouse screen.
const (
	PlacementCenter  = "center"
	PlacementLiteral = "literal"
)

// DefaultPort is the control server port used when none is configured.
const DefaultPort = 34987

// Config holds all application settings
type Config struct {
	ServerHost            string        `yaml:"server_host"`
	ServerPort            int           `yaml:"server_port"`
	ReconnectBackoff      time.Duration `yaml:"reconnect_backoff"`
	HandshakeTimeout      time.Duration `yaml:"handshake_timeout"`
	WindowWidth           int           `yaml:"window_width"`
	BaseHeight            int           `yaml:"base_height"`
	FallbackPaddingTop    int           `yaml:"fallback_padding_top"`
	FallbackPaddingBottom int           `yaml:"fallback_padding_bottom"`
	MouseScreenPlacement  string        `yaml:"mouse_screen_placement"` // "center" or "literal"
	HideOnFocusLost       bool          `yaml:"hide_on_focus_lost"`
	ParentPollInterval    time.Duration `yaml:"parent_poll_interval"`
	LogLevel              string        `yaml:"log_level"`
	ShowTray              bool          `yaml:"show_tray"`
}

var (
	instance   *Config
	loadErr    error
	once       sync.Once
	mu         sync.RWMutex
	configDir  string
	configPath string
)

// Default returns the default configuration
func Default() *Config {
	return &Config{
		ServerHost:            "localhost",
		ServerPort:            DefaultPort,
		ReconnectBackoff:      time.Second,
		HandshakeTimeout:      5 * time.Second,
		WindowWidth:           800,
		BaseHeight:            60,
		FallbackPaddingTop:    10,
		FallbackPaddingBottom: 10,
		MouseScreenPlacement:  PlacementCenter,
		HideOnFocusLost:       true,
		ParentPollInterval:    3 * time.Second,
		LogLevel:              "info",
		ShowTray:              true,
	}
}

// Get returns the singleton config instance. A file that cannot be read or
// parsed leaves every field at its default; LoadErr reports why.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = loadOrDefault()
	})
	return instance
}

// LoadErr returns the error from the load done by Get, if any.
func LoadErr() error {
	Get()
	return loadErr
}

func loadOrDefault() (*Config, error) {
	c := Default()
	if err := c.Load(); err != nil {
		return Default(), err
	}
	return c, nil
}

// SetDir overrides the config directory. Must be called before Get.
func SetDir(dir string) {
	mu.Lock()
	defer mu.Unlock()
	configDir = dir
	configPath = ""
}

// Dir returns the per-user directory holding config, logs and the local database.
// Uses platform-appropriate directories:
//   - Windows: %APPDATA%\Spotlight
//   - macOS:   ~/Library/Application Support/Spotlight
//   - Linux:   ~/.config/spotlight (XDG_CONFIG_HOME)
//
// SPOTLIGHT_CONFIG_DIR takes precedence over all of them.
func Dir() (string, error) {
	mu.RLock()
	defer mu.RUnlock()
	return resolveDir()
}

// resolveDir expects mu to be held.
func resolveDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	if env := os.Getenv("SPOTLIGHT_CONFIG_DIR"); env != "" {
		return env, nil
	}

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Spotlight"), nil

	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "Spotlight"), nil

	default: // linux and others
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "spotlight"), nil
	}
}

// getConfigPath returns the path to the config file, creating its directory.
// Callers hold mu.
func getConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}

	dir, err := resolveDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	configPath = filepath.Join(dir, "config.yaml")
	return configPath, nil
}

// Load reads the config from disk. A missing file keeps the defaults.
func (c *Config) Load() error {
	mu.Lock()
	defer mu.Unlock()

	path, err := getConfigPath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Use defaults
		}
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	mu.Lock()
	defer mu.Unlock()

	path, err := getConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.ServerHost == "":
		return fmt.Errorf("%w: server_host is empty", ErrInvalidConfig)
	case c.ServerPort <= 0 || c.ServerPort > 65535:
		return fmt.Errorf("%w: server_port %d out of range", ErrInvalidConfig, c.ServerPort)
	case c.ReconnectBackoff <= 0:
		return fmt.Errorf("%w: reconnect_backoff must be positive", ErrInvalidConfig)
	case c.HandshakeTimeout <= 0:
		return fmt.Errorf("%w: handshake_timeout must be positive", ErrInvalidConfig)
	case c.WindowWidth <= 0 || c.BaseHeight <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.WindowWidth, c.BaseHeight)
	case c.FallbackPaddingTop < 0 || c.FallbackPaddingBottom < 0:
		return fmt.Errorf("%w: negative fallback padding", ErrInvalidConfig)
	case c.MouseScreenPlacement != PlacementCenter && c.MouseScreenPlacement != PlacementLiteral:
		return fmt.Errorf("%w: mouse_screen_placement %q", ErrInvalidConfig, c.MouseScreenPlacement)
	case c.ParentPollInterval <= 0:
		return fmt.Errorf("%w: parent_poll_interval must be positive", ErrInvalidConfig)
	case !validLogLevel(c.LogLevel):
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// Sanitize resets every invalid field to its default and reports which ones were reset.
func (c *Config) Sanitize() []string {
	def := Default()
	var reset []string

	if c.ServerHost == "" {
		c.ServerHost = def.ServerHost
		reset = append(reset, "server_host")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		c.ServerPort = def.ServerPort
		reset = append(reset, "server_port")
	}
	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = def.ReconnectBackoff
		reset = append(reset, "reconnect_backoff")
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
		reset = append(reset, "handshake_timeout")
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = def.WindowWidth
		reset = append(reset, "window_width")
	}
	if c.BaseHeight <= 0 {
		c.BaseHeight = def.BaseHeight
		reset = append(reset, "base_height")
	}
	if c.FallbackPaddingTop < 0 {
		c.FallbackPaddingTop = def.FallbackPaddingTop
		reset = append(reset, "fallback_padding_top")
	}
	if c.FallbackPaddingBottom < 0 {
		c.FallbackPaddingBottom = def.FallbackPaddingBottom
		reset = append(reset, "fallback_padding_bottom")
	}
	if c.MouseScreenPlacement != PlacementCenter && c.MouseScreenPlacement != PlacementLiteral {
		c.MouseScreenPlacement = def.MouseScreenPlacement
		reset = append(reset, "mouse_screen_placement")
	}
	if c.ParentPollInterval <= 0 {
		c.ParentPollInterval = def.ParentPollInterval
		reset = append(reset, "parent_poll_interval")
	}
	if !validLogLevel(c.LogLevel) {
		c.LogLevel = def.LogLevel
		reset = append(reset, "log_level")
	}
	return reset
}

// validLogLevel accepts the zap level names; empty means info.
func validLogLevel(name string) bool {
	_, err := zapcore.ParseLevel(name)
	return err == nil
}

// ServerURL returns the control channel endpoint.
func (c *Config) ServerURL() string {
	return fmt.Sprintf("ws://%s:%d/ws", c.ServerHost, c.ServerPort)
}

// ThemeURL returns the theme query endpoint.
func (c *Config) ThemeURL() string {
	return fmt.Sprintf("http://%s:%d/theme", c.ServerHost, c.ServerPort)
}

// LogDir returns the directory for log files.
func LogDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "log"), nil
}
