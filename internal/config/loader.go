package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a configuration loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load resolves configuration in order: defaults, the user config file
// (~/.config/taskboard/config.yaml), then TASKBOARD_* environment variables.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfigPath != "" {
		userCfg, err := LoadFromFile(userConfigPath)
		switch {
		case err == nil:
			l.logger.Debug().Str("path", userConfigPath).Msg("loaded user config")
			cfg.Merge(userCfg)
		case os.IsNotExist(errors.Cause(err)):
			l.logger.Debug().Str("path", userConfigPath).Msg("no user config")
		default:
			l.logger.Warn().Err(err).Str("path", userConfigPath).Msg("failed to load user config")
		}
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvEnvironment); v != "" {
		cfg.Environment = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads a config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "[LoadFromFile] read config")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "[LoadFromFile] parse config")
	}
	return &cfg, nil
}

func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}
