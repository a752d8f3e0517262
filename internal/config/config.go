// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Radarr   *ManagerConfig `toml:"radarr"`
	Sonarr   *ManagerConfig `toml:"sonarr"`
	TMDB     *TMDBConfig    `toml:"tmdb"`
	OMDb     *OMDbConfig    `toml:"omdb"`
	Populate PopulateConfig `toml:"populate"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level string `toml:"level"`
	// File enables rotated file logging alongside stderr when set.
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// ManagerConfig connects one upstream media manager (Radarr or Sonarr).
// A nil section means that manager is not deployed; the daemon runs
// webhook-only for that media type.
type ManagerConfig struct {
	URL      string          `toml:"url"`
	APIKey   string          `toml:"api_key"`
	Database *DirectDBConfig `toml:"database"`
}

// DirectDBConfig opens a read-only side channel to the manager's own
// PostgreSQL database for import history the manager's API has trimmed.
type DirectDBConfig struct {
	DSN string `toml:"dsn"`
}

type TMDBConfig struct {
	APIKey string `toml:"api_key"`
	Region string `toml:"region"`
}

type OMDbConfig struct {
	APIKey string `toml:"api_key"`
}

type PopulateConfig struct {
	// LookupLimit bounds concurrent external lookups during population.
	// Zero uses the orchestrator's default.
	LookupLimit int `toml:"lookup_limit"`
}

// Load reads, substitutes, parses, and validates the configuration
// file. Unresolved environment variables and validation failures are
// aggregated into a single *ConfigError.
func Load(path string) (*Config, error) {
	cfg, missing, err := parse(path)
	if err != nil {
		return nil, err
	}

	cerr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cerr.HasErrors() {
		return nil, cerr
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file,
// skipping validation and tolerating unresolved environment variables.
// Used by commands that inspect or repair a config.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := parse(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, missing, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 28
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/datarr.db"
	}
}
