package cache

import (
	"fmt"
	"time"

	"github.com/kbukum/samuelizer/redis"
)

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// DefaultDir is the file backend directory, relative to the working directory.
const DefaultDir = ".cache/transcriptions"

// Config is the cache section of the application configuration.
type Config struct {
	// Enabled turns cache lookups on by default for transcription requests.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Backend is "file" or "redis".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=file redis"`
	// Dir is the file backend directory.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// TTL expires redis entries. Zero keeps them until cleared.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// Redis configures the redis backend.
	Redis redis.Config `yaml:"redis" mapstructure:"redis"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	if c.Backend == BackendRedis {
		c.Redis.ApplyDefaults()
	}
}

// Validate checks the selected backend's settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Dir == "" {
			return fmt.Errorf("cache: dir is required for the file backend")
		}
	case BackendRedis:
		return c.Redis.Validate()
	default:
		return fmt.Errorf("cache: unknown backend %q", c.Backend)
	}
	return nil
}
