package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all node configuration.
type Config struct {
	Node      NodeConfig
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Downstr   DownstreamConfig
}

// NodeConfig holds the node's Grid identity. The id values are validated
// by the identity layer at deployment time; only non-emptiness is
// enforced here.
type NodeConfig struct {
	ID          string `envconfig:"GRID_NODE_ID" default:"grid-node"`
	StudioID    string `envconfig:"GRID_STUDIO_ID" default:"honeydrunk"`
	Environment string `envconfig:"GRID_ENVIRONMENT" default:"dev"`
	Version     string `envconfig:"GRID_NODE_VERSION" default:"0.0.0-dev"`
	TagsFile    string `envconfig:"GRID_NODE_TAGS_FILE" default:""`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// DownstreamConfig holds the outbound client configuration.
type DownstreamConfig struct {
	TimeoutSeconds int `envconfig:"DOWNSTREAM_TIMEOUT_SECONDS" default:"30"`
	MaxRetries     int `envconfig:"DOWNSTREAM_MAX_RETRIES" default:"3"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
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

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Node: NodeConfig{
			ID:          "grid-node",
			StudioID:    "honeydrunk",
			Environment: "dev",
			Version:     "0.0.0-dev",
		},
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
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
		Downstr: DownstreamConfig{
			TimeoutSeconds: 30,
			MaxRetries:     3,
		},
	}
}

func (c *Config) validate() error {
	if c.Node.ID == "" || c.Node.StudioID == "" || c.Node.Environment == "" {
		return fmt.Errorf("node identity incomplete: id=%q studio=%q environment=%q",
			c.Node.ID, c.Node.StudioID, c.Node.Environment)
	}
	return nil
}

// LoadTags reads the optional node tags file. An unset path yields an
// empty tag set.
func (c *Config) LoadTags() (map[string]string, error) {
	if c.Node.TagsFile == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(c.Node.TagsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags file: %w", err)
	}
	tags := make(map[string]string)
	if err := yaml.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("failed to parse tags file: %w", err)
	}
	return tags, nil
}
