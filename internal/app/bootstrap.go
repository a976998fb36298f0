package app

import (
	"context"
	"fmt"
	"os"

	"cubectl/internal/config"
	"cubectl/pkg/logging"
)

// Application is the main application structure that bootstraps and runs cubectl
type Application struct {
	config   *Config
	services *Services
}

// LoadConfig loads the cubectl configuration selected by cfg and applies
// flag overrides. The result is stored on cfg.
func LoadConfig(cfg *Config) (config.CubectlConfig, error) {
	cubectlCfg, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load cubectl configuration")
		return cubectlCfg, fmt.Errorf("failed to load cubectl configuration: %w", err)
	}

	if cfg.BackendURL != "" {
		cubectlCfg.Backend.BaseURL = cfg.BackendURL
		if err := cubectlCfg.Validate(); err != nil {
			return cubectlCfg, fmt.Errorf("invalid --backend-url: %w", err)
		}
		logging.Debug("Bootstrap", "Backend URL overridden to %s", cfg.BackendURL)
	}

	cfg.CubectlConfig = &cubectlCfg
	return cubectlCfg, nil
}

// NewApplication creates and initializes a new application instance
func NewApplication(cfg *Config) (*Application, error) {
	// Initialize logging for CLI output (will be replaced for TUI mode)
	logging.InitForCLI(cfg.LogLevel(), os.Stderr)

	cubectlCfg, err := LoadConfig(cfg)
	if err != nil {
		return nil, err
	}

	services, err := InitializeServices(cubectlCfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services exposes the initialized services to subcommands.
func (a *Application) Services() *Services {
	return a.services
}

// Config returns the application configuration.
func (a *Application) Config() *Config {
	return a.config
}

// Close releases resources held by the services.
func (a *Application) Close() {
	a.services.Close()
}

// Run executes the application in the appropriate mode
func (a *Application) Run(ctx context.Context) error {
	defer a.Close()
	if a.config.NoTUI {
		return runCLIMode(ctx, a.config, a.services)
	}
	return runTUIMode(ctx, a.config, a.services)
}
