// Package config loads the bootstrap configuration: an optional JSON
// file layered under environment variable overrides, validated before
// use.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage mode constants
const (
	StorageModeMemory = "memory" // in-memory only, records lost on exit
	StorageModeNATS   = "nats"   // NATS JetStream KV bucket
)

// EnvPrefix is the prefix of every override variable
const EnvPrefix = "EMPOWER"

// Config represents the complete runtime configuration
type Config struct {
	HTTP     HTTPConfig    `json:"http"`
	NATS     NATSConfig    `json:"nats"`
	Storage  StorageConfig `json:"storage"`
	Log      LogConfig     `json:"log"`
	Accounts []string      `json:"accounts,omitempty"`
}

// HTTPConfig defines the REST listener settings
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URL           string        `json:"url,omitempty"`
	Bucket        string        `json:"bucket,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
}

// StorageConfig selects the durable record backend
type StorageConfig struct {
	Mode string `json:"mode"`
}

// LogConfig defines structured logging settings
type LogConfig struct {
	Level string `json:"level"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Addr: ":8888"},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			Bucket:        "empower-runtime",
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
		},
		Storage:  StorageConfig{Mode: StorageModeMemory},
		Log:      LogConfig{Level: "info"},
		Accounts: []string{"root"},
	}
}

// Load reads the configuration: defaults, then the JSON file when path
// is non-empty, then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if val := os.Getenv(EnvPrefix + "_HTTP_ADDR"); val != "" {
		c.HTTP.Addr = val
	}
	if val := os.Getenv(EnvPrefix + "_NATS_URL"); val != "" {
		c.NATS.URL = val
	}
	if val := os.Getenv(EnvPrefix + "_NATS_BUCKET"); val != "" {
		c.NATS.Bucket = val
	}
	if val := os.Getenv(EnvPrefix + "_NATS_MAX_RECONNECTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.NATS.MaxReconnects = n
		}
	}
	if val := os.Getenv(EnvPrefix + "_STORAGE_MODE"); val != "" {
		c.Storage.Mode = val
	}
	if val := os.Getenv(EnvPrefix + "_LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv(EnvPrefix + "_ACCOUNTS"); val != "" {
		c.Accounts = strings.Split(val, ",")
	}
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}

	switch c.Storage.Mode {
	case StorageModeMemory:
	case StorageModeNATS:
		if c.NATS.URL == "" {
			return errors.New("nats.url is required with storage.mode nats")
		}
		if c.NATS.Bucket == "" {
			return errors.New("nats.bucket is required with storage.mode nats")
		}
	default:
		return fmt.Errorf("unknown storage.mode %q", c.Storage.Mode)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log.level %q", l.Level)
	}
}
