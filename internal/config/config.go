// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	AdminAPIKey string `yaml:"admin_api_key"`
	// ScannerJWTSecret signs and verifies the scanner identity tokens
	// presented on the redeem endpoint.
	ScannerJWTSecret string `yaml:"scanner_jwt_secret"`
	// ScanURLBase is the public prefix embedded in scannable payloads,
	// e.g. https://gate.example.com/scan
	ScanURLBase string `yaml:"scan_url_base"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type RedemptionConfig struct {
	// Timezone is the single reference timezone governing "today" for
	// calendar-date and time-of-day checks, regardless of where a scanner
	// or guest happens to be. IANA name, loaded once at startup.
	Timezone string `yaml:"timezone"`
}

type EncoderConfig struct {
	// Endpoint of the external image encoder service. Empty selects the
	// noop encoder (dev/tests).
	Endpoint   string `yaml:"endpoint"`
	Foreground string `yaml:"foreground"`
	Background string `yaml:"background"`
	Size       int    `yaml:"size"`
}

type CleanupConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Retention time.Duration `yaml:"retention"` // how long expired passes are kept
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Redemption RedemptionConfig `yaml:"redemption"`
	Encoder    EncoderConfig    `yaml:"encoder"`
	Cleanup    CleanupConfig    `yaml:"cleanup"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redemption.Timezone == "" {
		cfg.Redemption.Timezone = "UTC"
	}
	if cfg.Encoder.Size <= 0 {
		cfg.Encoder.Size = 512
	}
	if cfg.Cleanup.Interval <= 0 {
		cfg.Cleanup.Interval = time.Hour
	}
	if cfg.Cleanup.Retention <= 0 {
		cfg.Cleanup.Retention = 30 * 24 * time.Hour
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Server.ScanURLBase == "" {
		return nil, errors.New("server.scan_url_base is required")
	}
	if _, err := time.LoadLocation(cfg.Redemption.Timezone); err != nil {
		return nil, fmt.Errorf("redemption.timezone: %w", err)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// Location resolves the configured reference timezone. LoadConfig already
// validated the name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Redemption.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
