package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Repository RepositoryConfig `yaml:"repository" toml:"repository"`
	Facade     FacadeConfig     `yaml:"facade" toml:"facade"`
	Logging    LogConfig        `yaml:"logging" toml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000" yaml:"port" toml:"port"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	AllowedOrigins  []string      `envconfig:"CORS_ORIGINS" default:"*" yaml:"allowed_origins" toml:"allowed_origins"`

	// WebSocketOrigins are the cross-origin pages allowed to open a frame.
	// Frames forward the upgrade request's cookies, so the default admits
	// same-origin pages only.
	WebSocketOrigins []string `envconfig:"WS_ORIGINS" yaml:"websocket_origins" toml:"websocket_origins"`
	// ExposeSessions mounts the session listing endpoints, which reveal
	// what every connected user is browsing.
	ExposeSessions bool `envconfig:"EXPOSE_SESSIONS" default:"false" yaml:"expose_sessions" toml:"expose_sessions"`
}

// RepositoryConfig points the facade at the repository read API.
type RepositoryConfig struct {
	BaseURL   string        `envconfig:"REPO_API_URL" default:"http://localhost:8080" yaml:"base_url" toml:"base_url"`
	CommitRef string        `envconfig:"REPO_COMMIT_REF" default:"HEAD" yaml:"commit_ref" toml:"commit_ref"`
	Timeout   time.Duration `envconfig:"REPO_TIMEOUT" default:"15s" yaml:"timeout" toml:"timeout"`
	RateLimit float64       `envconfig:"REPO_RATE_LIMIT" default:"50" yaml:"rate_limit" toml:"rate_limit"`
	PinRef    bool          `envconfig:"REPO_PIN_REF" default:"false" yaml:"pin_ref" toml:"pin_ref"`
}

// FacadeConfig holds host page and frame settings.
type FacadeConfig struct {
	FrameID    string `envconfig:"FACADE_FRAME_ID" default:"facade-iframe" yaml:"frame_id" toml:"frame_id"`
	LineHeight int    `envconfig:"FACADE_LINE_HEIGHT" default:"18" yaml:"line_height" toml:"line_height"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// Load loads configuration from environment variables, then applies the
// file named by CONFIG_FILE on top when it is set.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ApplyFile overlays a YAML or TOML file onto cfg. Keys missing from the
// file keep their current values.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Repository: RepositoryConfig{
			BaseURL:   "http://localhost:8080",
			CommitRef: "HEAD",
			Timeout:   15 * time.Second,
			RateLimit: 50,
		},
		Facade: FacadeConfig{
			FrameID:    "facade-iframe",
			LineHeight: 18,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
