// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// EnvironmentVariable names the file Load reads.
const EnvironmentVariable = "MATRIXWIRE_CONFIG"

// Config is the top-level configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	// Client configures outgoing requests to a homeserver.
	Client ClientConfig `yaml:"client"`

	// Server configures the HTTP listener that serves endpoints.
	Server ServerConfig `yaml:"server"`

	Log LogConfig `yaml:"log"`

	// Per-environment overrides, applied after the base values.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Client *ClientConfig `yaml:"client,omitempty"`
	Server *ServerConfig `yaml:"server,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
}

// ClientConfig configures the messaging client.
type ClientConfig struct {
	// Homeserver is the base URL, e.g. https://matrix.example.org.
	Homeserver string `yaml:"homeserver"`

	// Version pins the protocol version ("v1.11", "r0.6.1"). Empty
	// means negotiate against the server's /versions response.
	Version string `yaml:"version"`

	// AllowUnstable permits unstable path variants when Version is
	// pinned. Negotiation decides by unstable_features instead.
	AllowUnstable bool `yaml:"allow_unstable"`

	// AccessTokenEnv names the environment variable that holds the
	// access token.
	// Default: MATRIXWIRE_ACCESS_TOKEN
	AccessTokenEnv string `yaml:"access_token_env"`

	// Timeout bounds each request, as a Go duration.
	// Default: 30s
	Timeout string `yaml:"timeout"`
}

// ServerConfig configures the endpoint server.
type ServerConfig struct {
	// Listen is the TCP address to listen on.
	// Default: 127.0.0.1:8008
	Listen string `yaml:"listen"`

	// MaxRequestBytes bounds decoded request bodies.
	// Default: 100 MiB
	MaxRequestBytes int64 `yaml:"max_request_bytes"`

	// MetricsPath, when set, serves Prometheus metrics at this path
	// next to the Matrix endpoints (e.g. /metrics).
	MetricsPath string `yaml:"metrics_path"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string `yaml:"level"`

	// Format is "text" or "json". Empty chooses by terminal detection.
	Format string `yaml:"format"`
}

// Default returns the configuration that a loaded file is merged into.
func Default() *Config {
	return &Config{
		Environment: Development,
		Client: ClientConfig{
			AccessTokenEnv: "MATRIXWIRE_ACCESS_TOKEN",
			Timeout:        "30s",
		},
		Server: ServerConfig{
			Listen:          "127.0.0.1:8008",
			MaxRequestBytes: 100 << 20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by MATRIXWIRE_CONFIG.
// There is no fallback: an unset variable is an error.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your matrix-wire.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if client := overrides.Client; client != nil {
		if client.Homeserver != "" {
			c.Client.Homeserver = client.Homeserver
		}
		if client.Version != "" {
			c.Client.Version = client.Version
		}
		// A bool cannot say "unset", so an override section always
		// applies it.
		c.Client.AllowUnstable = client.AllowUnstable
		if client.AccessTokenEnv != "" {
			c.Client.AccessTokenEnv = client.AccessTokenEnv
		}
		if client.Timeout != "" {
			c.Client.Timeout = client.Timeout
		}
	}

	if server := overrides.Server; server != nil {
		if server.Listen != "" {
			c.Server.Listen = server.Listen
		}
		if server.MaxRequestBytes != 0 {
			c.Server.MaxRequestBytes = server.MaxRequestBytes
		}
		if server.MetricsPath != "" {
			c.Server.MetricsPath = server.MetricsPath
		}
	}

	if log := overrides.Log; log != nil {
		if log.Level != "" {
			c.Log.Level = log.Level
		}
		if log.Format != "" {
			c.Log.Format = log.Format
		}
	}
}

func (c *Config) expandVariables() {
	c.Client.Homeserver = expandVars(c.Client.Homeserver)
	c.Server.Listen = expandVars(c.Server.Listen)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Client.Homeserver != "" {
		parsed, err := url.Parse(c.Client.Homeserver)
		if err != nil {
			errs = append(errs, fmt.Errorf("client.homeserver: %w", err))
		} else if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("client.homeserver must be an http or https URL, got %q", c.Client.Homeserver))
		}
	}
	if c.Client.AccessTokenEnv == "" {
		errs = append(errs, errors.New("client.access_token_env is required"))
	}
	if _, err := c.Client.RequestTimeout(); err != nil {
		errs = append(errs, err)
	}

	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen is required"))
	}
	if c.Server.MaxRequestBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_request_bytes must be positive, got %d", c.Server.MaxRequestBytes))
	}
	if path := c.Server.MetricsPath; path != "" && (!strings.HasPrefix(path, "/") || strings.HasPrefix(path, "/_matrix/")) {
		errs = append(errs, fmt.Errorf("server.metrics_path must start with / and lie outside /_matrix/, got %q", path))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// RequestTimeout parses Timeout.
func (c ClientConfig) RequestTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("client.timeout: %w", err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("client.timeout must be positive, got %s", c.Timeout)
	}
	return timeout, nil
}

// AccessToken reads the token from the environment variable named by
// AccessTokenEnv. An unset variable yields "".
func (c ClientConfig) AccessToken() string {
	if c.AccessTokenEnv == "" {
		return ""
	}
	return os.Getenv(c.AccessTokenEnv)
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
