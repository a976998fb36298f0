package app

import (
	"cubectl/internal/config"
	"cubectl/pkg/logging"
)

// Config holds the application configuration
type Config struct {
	// UI mode
	NoTUI bool

	// Debug settings
	Debug bool

	// ConfigPath is an explicit config file; empty means layered loading.
	ConfigPath string

	// BackendURL overrides backend.baseURL when set.
	BackendURL string

	// Loaded cubectl configuration
	CubectlConfig *config.CubectlConfig
}

// NewConfig creates a new application configuration
func NewConfig(noTUI, debug bool, configPath, backendURL string) *Config {
	return &Config{
		NoTUI:      noTUI,
		Debug:      debug,
		ConfigPath: configPath,
		BackendURL: backendURL,
	}
}

// LogLevel returns the level selected by the debug flag.
func (c *Config) LogLevel() logging.LogLevel {
	if c.Debug {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}
