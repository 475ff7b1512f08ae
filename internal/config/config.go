// Package config loads stash host settings from a YAML file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/stash/internal/logging"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "STASH_"

// Backend kinds.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every setting of a stash host.
type Config struct {
	Listen   string       `yaml:"listen" env:"LISTEN"`
	LogLevel string       `yaml:"log_level" env:"LOG_LEVEL"`
	Backend  string       `yaml:"backend" env:"BACKEND"`
	Redis    RedisConfig  `yaml:"redis" envPrefix:"REDIS_"`
	File     FileConfig   `yaml:"file" envPrefix:"FILE_"`
	SQLite   SQLiteConfig `yaml:"sqlite" envPrefix:"SQLITE_"`
	Cookie   CookieConfig `yaml:"cookie" envPrefix:"COOKIE_"`
	// Redact lists key patterns masked by inspection tooling.
	Redact []string `yaml:"redact" env:"REDACT" envSeparator:","`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	Prefix   string        `yaml:"prefix" env:"PREFIX"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"`
}

type FileConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type CookieConfig struct {
	Name   string `yaml:"name" env:"NAME"`
	Secure bool   `yaml:"secure" env:"SECURE"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Listen:   ":8080",
		LogLevel: "info",
		Backend:  BackendMemory,
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "stash:session:",
		},
		File:   FileConfig{Dir: ".stash/sessions"},
		SQLite: SQLiteConfig{Path: ".stash/sessions.db"},
		Cookie: CookieConfig{Name: "stash_session"},
		Redact: []string{"(?i)password|secret|token"},
	}
}

// Load builds a Config from defaults, then the YAML file at path, then the environment.
// Variables from dotenv are exported first without overriding the real environment.
// Empty paths are skipped; a missing dotenv file is not an error.
func Load(path, dotenv string) (Config, error) {
	cfg := Default()

	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the backend kind, its required settings and the log level.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis backend requires an address", ErrInvalidConfig)
		}
	case BackendFile:
		if c.File.Dir == "" {
			return fmt.Errorf("%w: file backend requires a directory", ErrInvalidConfig)
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("%w: sqlite backend requires a path", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}

	if c.Cookie.Name == "" {
		return fmt.Errorf("%w: cookie name is required", ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
