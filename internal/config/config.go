// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Collector  CollectorConfig  `yaml:"collector"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CollectorConfig holds batch ingestion settings.
type CollectorConfig struct {
	// ProgressPath is where resumable batch progress is persisted.
	ProgressPath string `yaml:"progress_path"`
	// PaceMS is the delay between processed artists, on top of the
	// per-source rate limiters. MusicBrainz asks for headroom beyond
	// its hard 1 req/s limit on sustained crawls.
	PaceMS int `yaml:"pace_ms"`
	// SeedsPath optionally points to a newline-separated seed artist list.
	SeedsPath string `yaml:"seeds_path"`
}

// Pace returns the inter-artist pacing delay.
func (c CollectorConfig) Pace() time.Duration {
	return time.Duration(c.PaceMS) * time.Millisecond
}

// EncryptionConfig holds the key used to encrypt stored API keys.
type EncryptionConfig struct {
	Key string `yaml:"key"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "/data/melisma.db",
		},
		Collector: CollectorConfig{
			ProgressPath: "/data/collection-progress.json",
			PaceMS:       2500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("ML_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("ML_BASE_PATH"); v != "" {
		c.Server.BasePath = v
	}
	if v := os.Getenv("ML_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("ML_PROGRESS_PATH"); v != "" {
		c.Collector.ProgressPath = v
	}
	if v := os.Getenv("ML_PACE_MS"); v != "" {
		if pace, err := strconv.Atoi(v); err == nil {
			c.Collector.PaceMS = pace
		}
	}
	if v := os.Getenv("ML_SEEDS_PATH"); v != "" {
		c.Collector.SeedsPath = v
	}
	if v := os.Getenv("ML_ENCRYPTION_KEY"); v != "" {
		c.Encryption.Key = v
	}
	if v := os.Getenv("ML_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ML_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("ML_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Collector.ProgressPath == "" {
		return fmt.Errorf("collector progress path is required")
	}
	if c.Collector.PaceMS < 0 {
		return fmt.Errorf("invalid pace: %dms", c.Collector.PaceMS)
	}
	c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")
	return nil
}
