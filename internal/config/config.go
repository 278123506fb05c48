// Package config provides configuration loading for projectindex.
//
// Configuration comes from an optional YAML file overridden by environment
// variables, with defaults for everything except the GitHub token.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the complete projectindex configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	GitHub    GitHubConfig    `koanf:"github"`
	Store     StoreConfig     `koanf:"store"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"http_host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// UpdateRateLimit is the sustained number of update requests per second
	// allowed from one client address. UpdateBurst is the bucket size.
	UpdateRateLimit float64 `koanf:"update_rate_limit"`
	UpdateBurst     int     `koanf:"update_burst"`
}

// GitHubConfig locates the project document.
type GitHubConfig struct {
	Token      Secret        `koanf:"token"`
	Owner      string        `koanf:"owner"`
	Repo       string        `koanf:"repo"`
	Branch     string        `koanf:"branch"`
	Path       string        `koanf:"path"`
	APIBaseURL string        `koanf:"api_base_url"`
	RawBaseURL string        `koanf:"raw_base_url"`
	Timeout    time.Duration `koanf:"timeout"`
}

// Read modes for the listing hydrate path.
const (
	ReadModeRaw      = "raw"
	ReadModeContents = "contents"
)

// StoreConfig controls how the listing is hydrated.
type StoreConfig struct {
	// ReadMode selects the raw-content host ("raw") or the contents API
	// ("contents") for listing reads. Updates always use the contents API.
	ReadMode string `koanf:"read_mode"`

	// FallbackPath is a local copy of the document used when the remote read
	// fails. Empty means the copy compiled into the binary.
	FallbackPath string `koanf:"fallback_path"`
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig controls OpenTelemetry trace and metric export.
// Telemetry is off unless enabled, since most installs have no collector.
type TelemetryConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`

	// Protocol is "grpc" or "http/protobuf".
	Protocol string `koanf:"protocol"`

	// Insecure disables TLS. Only allowed for local endpoints.
	Insecure bool `koanf:"insecure"`

	SampleRate     float64       `koanf:"sample_rate"`
	ExportInterval time.Duration `koanf:"export_interval"`
}

// Validate validates the configuration.
//
// A missing GitHub token is not an error here: the listing works without
// one, and updates report the missing credential per request.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.UpdateRateLimit < 0 || c.Server.UpdateBurst < 0 {
		return errors.New("update rate limit and burst cannot be negative")
	}

	if c.GitHub.Owner == "" || c.GitHub.Repo == "" || c.GitHub.Path == "" {
		return errors.New("github owner, repo and path are required")
	}
	if strings.Contains(c.GitHub.Path, "..") || strings.HasPrefix(c.GitHub.Path, "/") {
		return fmt.Errorf("invalid github path %q (must be relative to the repository root)", c.GitHub.Path)
	}
	if c.GitHub.Timeout < 0 {
		return errors.New("github timeout cannot be negative")
	}

	switch c.Store.ReadMode {
	case ReadModeRaw, ReadModeContents:
	default:
		return fmt.Errorf("invalid store read mode %q (must be %q or %q)", c.Store.ReadMode, ReadModeRaw, ReadModeContents)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid logging format %q (must be json or console)", c.Logging.Format)
	}

	if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http/protobuf" {
		return fmt.Errorf("invalid telemetry protocol %q (must be grpc or http/protobuf)", c.Telemetry.Protocol)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry sample rate must be between 0 and 1, got %v", c.Telemetry.SampleRate)
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.UpdateRateLimit == 0 {
		cfg.Server.UpdateRateLimit = 1
	}
	if cfg.Server.UpdateBurst == 0 {
		cfg.Server.UpdateBurst = 10
	}

	if cfg.GitHub.Owner == "" {
		cfg.GitHub.Owner = "vickaul-ai"
	}
	if cfg.GitHub.Repo == "" {
		cfg.GitHub.Repo = "vercel-project-index"
	}
	if cfg.GitHub.Branch == "" {
		cfg.GitHub.Branch = "main"
	}
	if cfg.GitHub.Path == "" {
		cfg.GitHub.Path = "projects.json"
	}

	if cfg.Store.ReadMode == "" {
		cfg.Store.ReadMode = ReadModeRaw
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	// Zero means unset; sampling nothing is done by disabling telemetry.
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 15 * time.Second
	}
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
