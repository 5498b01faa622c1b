// Package config loads client configuration with layered precedence:
// defaults, then the user config file, then environment variables.
package config

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const (
	// UserConfigDir is the directory for user-level config, relative to the
	// home directory.
	UserConfigDir = ".config/taskboard"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"

	// EnvBaseURL overrides the backend base URL.
	EnvBaseURL = "TASKBOARD_BASE_URL"
	// EnvEnvironment overrides the deployment environment.
	EnvEnvironment = "TASKBOARD_ENV"
)

// Config holds the client settings.
type Config struct {
	// BaseURL is the backend API root, e.g. https://acme.taskboard.io/api.
	// The URL's host also drives tenant resolution.
	BaseURL string `yaml:"base_url"`
	// Environment is "development" or "production".
	Environment string `yaml:"environment"`
}

// DefaultConfig returns the built-in defaults: a local development backend.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "http://localhost:5000/api",
		Environment: "development",
	}
}

// Merge overlays non-empty fields from other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.BaseURL != "" {
		c.BaseURL = other.BaseURL
	}
	if other.Environment != "" {
		c.Environment = other.Environment
	}
}

// Validate checks the config is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return errors.Wrap(err, "[Config.Validate] base_url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("[Config.Validate] base_url must be http or https, got %q", c.BaseURL)
	}
	if u.Host == "" {
		return errors.Errorf("[Config.Validate] base_url missing host: %q", c.BaseURL)
	}
	switch c.Environment {
	case "development", "production":
	default:
		return errors.Errorf("[Config.Validate] environment must be development or production, got %q", c.Environment)
	}
	return nil
}

// OriginHost returns the backend host without the port. Tenant resolution
// derives the tenant subdomain from it.
func (c *Config) OriginHost() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	host := u.Host
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	return host
}
