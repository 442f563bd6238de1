// Package config loads the CLI configuration from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Skryldev/stereomerge/pkg/retry"
)

const (
	defaultWorkers          = 4
	defaultDeleteSources    = true
	defaultLogLevel         = "info"
	defaultDeleteAttempts   = 3
	defaultDeleteRetryDelay = 100
	defaultConfigRelPath    = ".config/stereomerge/config.toml"
	maxWorkers              = 64
)

// Log contains logging configuration.
type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// DeleteRetry controls how source removal is retried.
type DeleteRetry struct {
	Attempts int `toml:"attempts"`
	DelayMS  int `toml:"delay_ms"`
}

// Config is the complete CLI configuration.
type Config struct {
	Extensions    []string    `toml:"extensions"`
	DeleteSources bool        `toml:"delete_sources"`
	Workers       int         `toml:"workers"`
	Log           Log         `toml:"log"`
	DeleteRetry   DeleteRetry `toml:"delete_retry"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Extensions:    []string{".wav"},
		DeleteSources: defaultDeleteSources,
		Workers:       defaultWorkers,
		Log:           Log{Level: defaultLogLevel},
		DeleteRetry: DeleteRetry{
			Attempts: defaultDeleteAttempts,
			DelayMS:  defaultDeleteRetryDelay,
		},
	}
}

// DefaultPath returns ~/.config/stereomerge/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultConfigRelPath)
}

// Load reads path on top of the defaults. A missing file at the default
// location is not an error; a missing explicitly requested file is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if len(c.Extensions) == 0 {
		return errors.New("extensions must not be empty")
	}
	for _, e := range c.Extensions {
		if strings.TrimSpace(strings.TrimPrefix(e, ".")) == "" {
			return fmt.Errorf("invalid extension %q", e)
		}
	}
	if c.Workers < 1 || c.Workers > maxWorkers {
		return fmt.Errorf("workers must be between 1 and %d, got %d", maxWorkers, c.Workers)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if c.DeleteRetry.Attempts < 1 {
		return fmt.Errorf("delete_retry.attempts must be at least 1, got %d", c.DeleteRetry.Attempts)
	}
	if c.DeleteRetry.DelayMS < 0 {
		return fmt.Errorf("delete_retry.delay_ms must not be negative")
	}
	return nil
}

// Retry converts the delete retry settings.
func (c *Config) Retry() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = c.DeleteRetry.Attempts
	cfg.Delay = time.Duration(c.DeleteRetry.DelayMS) * time.Millisecond
	return cfg
}

// Sample renders c as TOML, used by "stereomerge config".
func (c *Config) Sample() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
