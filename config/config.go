package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"alma.local/valobs/internal/logging"
)

const (
	defaultIterations = 10
	defaultSeed       = 1
)

var ErrInvalidConfig = errors.New("invalid config")

// LogConfig selects the logger level and handler format.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" mapstructure:"format"` // text or json
}

// RunConfig drives the demo harness of the CLI.
type RunConfig struct {
	Iterations int   `yaml:"iterations,omitempty" mapstructure:"iterations"`
	Seed       int64 `yaml:"seed,omitempty" mapstructure:"seed"`
}

// Config holds initialization parameters for the CLI and its executor.
type Config struct {
	Log LogConfig `yaml:"log" mapstructure:"log"`
	Run RunConfig `yaml:"run" mapstructure:"run"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Run: RunConfig{Iterations: defaultIterations, Seed: defaultSeed},
	}
}

// Merge applies non-zero values from source into c. A zero Run.Seed counts
// as unset here; Load and the CLI apply an explicitly given zero seed.
func (c *Config) Merge(source *Config) {
	if source.Log.Level != "" {
		c.Log.Level = source.Log.Level
	}
	if source.Log.Format != "" {
		c.Log.Format = source.Log.Format
	}
	if source.Run.Iterations > 0 {
		c.Run.Iterations = source.Run.Iterations
	}
	if source.Run.Seed != 0 {
		c.Run.Seed = source.Run.Seed
	}
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Run.Iterations <= 0 {
		return fmt.Errorf("%w: run.iterations must be positive", ErrInvalidConfig)
	}
	return nil
}

// Load reads a YAML config file, merges it with defaults, and returns the
// resulting Config.
func Load(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)

	var explicit struct {
		Run struct {
			Seed *int64 `yaml:"seed"`
		} `yaml:"run"`
	}
	if err := yaml.Unmarshal(data, &explicit); err == nil && explicit.Run.Seed != nil {
		cfg.Run.Seed = *explicit.Run.Seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
