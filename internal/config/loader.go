package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cubectl/pkg/logging"
)

const (
	userConfigDir     = ".config/cubectl"
	projectConfigDir  = ".cubectl"
	configFileName    = "config.yaml"
	sessionFileName   = "session.yaml"
	configSubsystem   = "ConfigLoader"
	defaultExpandWord = ":-"
)

// Overridable for tests.
var (
	osUserHomeDir = os.UserHomeDir
	osGetwd       = os.Getwd
	osLookupEnv   = os.LookupEnv
)

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// LoadConfig builds the effective configuration. With an explicitPath only
// the defaults and that file are used, and the file must exist. Otherwise
// the user and project files are layered on the defaults when present.
func LoadConfig(explicitPath string) (CubectlConfig, error) {
	cfg := GetDefaultConfig()

	if explicitPath != "" {
		found, err := loadConfigFromFile(explicitPath, &cfg)
		if err != nil {
			return cfg, err
		}
		if !found {
			return cfg, fmt.Errorf("config file %s does not exist", explicitPath)
		}
		logging.Info(configSubsystem, "Loaded configuration from %s", explicitPath)
		return finalize(cfg)
	}

	if userPath, err := getUserConfigPath(); err != nil {
		logging.Warn(configSubsystem, "Could not determine user config path: %v", err)
	} else if found, err := loadConfigFromFile(userPath, &cfg); err != nil {
		return cfg, err
	} else if found {
		logging.Info(configSubsystem, "Loaded user configuration from %s", userPath)
	}

	if projectPath, err := getProjectConfigPath(); err != nil {
		logging.Warn(configSubsystem, "Could not determine project config path: %v", err)
	} else if found, err := loadConfigFromFile(projectPath, &cfg); err != nil {
		return cfg, err
	} else if found {
		logging.Info(configSubsystem, "Loaded project configuration from %s", projectPath)
	}

	return finalize(cfg)
}

// loadConfigFromFile decodes a YAML file on top of cfg. Keys absent from
// the file keep their current values. A missing file is not an error.
func loadConfigFromFile(filePath string, cfg *CubectlConfig) (bool, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug(configSubsystem, "Config file not found at %s, skipping", filePath)
			return false, nil
		}
		return false, fmt.Errorf("error reading config file %s: %w", filePath, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return true, nil
	}

	expanded := expandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return true, fmt.Errorf("error unmarshalling config file %s: %w", filePath, err)
	}
	return true, nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} references.
func expandEnv(s string) string {
	return os.Expand(s, func(ref string) string {
		name, fallback, hasDefault := strings.Cut(ref, defaultExpandWord)
		if v, ok := osLookupEnv(name); ok && (v != "" || !hasDefault) {
			return v
		}
		if hasDefault {
			return fallback
		}
		logging.Debug(configSubsystem, "Environment variable %s is not set", name)
		return ""
	})
}

// finalize fills derived values and validates the result.
func finalize(cfg CubectlConfig) (CubectlConfig, error) {
	if cfg.Session.Path == "" {
		p, err := DefaultSessionPath()
		if err != nil {
			return cfg, err
		}
		cfg.Session.Path = p
	} else {
		cfg.Session.Path = expandHome(cfg.Session.Path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultSessionPath is where the navigation selection is persisted.
func DefaultSessionPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir, sessionFileName), nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	homeDir, err := osUserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(homeDir, strings.TrimPrefix(p, "~"))
}

// Marshal renders cfg as YAML, as printed by "cubectl config".
func Marshal(cfg CubectlConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}
