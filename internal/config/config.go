package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
)

// Config holds all configuration for the server.
type Config struct {
	Server      ServerConfig
	Repository  RepositoryConfig
	Enumeration EnumerationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"5988"`
}

// RepositoryConfig holds repository configuration.
type RepositoryConfig struct {
	// DefaultNamespace is the connection default namespace; it is created
	// at startup and can never be removed.
	DefaultNamespace string `env:"DEFAULT_NAMESPACE" envDefault:"root/cimv2"`
	// SeedFile optionally names a YAML model file loaded at startup.
	SeedFile string `env:"SEED_FILE"`
}

// EnumerationConfig tunes the open/pull enumeration protocol.
type EnumerationConfig struct {
	// DefaultMaxObjectCount is the batch size used when a request omits
	// MaxObjectCount.
	DefaultMaxObjectCount uint32 `env:"ENUM_DEFAULT_MAX_OBJECT_COUNT" envDefault:"100"`
	// MaxOperationTimeout bounds the OperationTimeout accepted by Open
	// calls, in seconds.
	MaxOperationTimeout uint32 `env:"ENUM_MAX_OPERATION_TIMEOUT" envDefault:"40"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Repository); err != nil {
		return nil, fmt.Errorf("parsing repository config: %w", err)
	}
	if err := env.Parse(&cfg.Enumeration); err != nil {
		return nil, fmt.Errorf("parsing enumeration config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT %d is out of range", c.Server.Port)
	}
	if c.Repository.DefaultNamespace == "" {
		return fmt.Errorf("DEFAULT_NAMESPACE must not be empty")
	}
	if c.Enumeration.DefaultMaxObjectCount == 0 {
		return fmt.Errorf("ENUM_DEFAULT_MAX_OBJECT_COUNT must be positive")
	}
	if c.Enumeration.MaxOperationTimeout == 0 {
		return fmt.Errorf("ENUM_MAX_OPERATION_TIMEOUT must be positive")
	}
	return nil
}
