// Package config loads the YAML configuration file and keeps the site texts
// up to date when the file changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/trznica/internal/imaging"
)

// Config is the full configuration. Zero fields in the file keep defaults.
type Config struct {
	Addr          string          `yaml:"addr"`
	DB            string          `yaml:"db"`
	Timezone      string          `yaml:"timezone"`
	AdminUser     string          `yaml:"admin_user"`
	ConfirmWindow time.Duration   `yaml:"confirm_window"`
	Log           LogConfig       `yaml:"log"`
	Site          Site            `yaml:"site"`
	Session       SessionConfig   `yaml:"session"`
	Images        imaging.Options `yaml:"images"`
	Mirror        MirrorConfig    `yaml:"mirror"`
}

// LogConfig configures the optional log file. With no file, logs go to
// stdout and stderr.
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Site holds the texts shown on every page. They are reloaded while running.
type Site struct {
	Title     string `yaml:"title" json:"title"`
	Welcome   string `yaml:"welcome" json:"welcome"`
	AddButton string `yaml:"add_button" json:"add_button"`
}

// SessionConfig configures login sessions.
type SessionConfig struct {
	TTL       time.Duration `yaml:"ttl"`
	RedisAddr string        `yaml:"redis_addr"`
}

// MirrorConfig configures the remote catalog mirror.
type MirrorConfig struct {
	// URL of a remote mirror to push saved listings to and pull from.
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
	// Serve exposes this server's own mirror endpoint.
	Serve  bool   `yaml:"serve"`
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:          ":8080",
		DB:            "trznica.sqlite3",
		Timezone:      "Local",
		AdminUser:     "admin",
		ConfirmWindow: 3 * time.Second,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Site: Site{
			Title:     "School Market",
			Welcome:   "Buy and sell between students, simply and safely.",
			AddButton: "+ Add listing",
		},
		Session: SessionConfig{TTL: 7 * 24 * time.Hour},
		Images:  imaging.DefaultOptions(),
		Mirror:  MirrorConfig{Driver: "sqlite"},
	}
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	// A file caught mid-write reads as empty; it must not reset everything.
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("config file is empty")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Mirror.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("mirror.driver: unsupported driver %q", c.Mirror.Driver)
	}
	if c.Mirror.Driver == "mysql" && c.Mirror.DSN == "" {
		return errors.New("mirror.dsn: required for the mysql driver")
	}
	if c.Images.MaxImages < 1 || c.Images.MaxWidth < 1 {
		return errors.New("images: max_images and max_width must be positive")
	}
	if c.Images.MinQuality < 1 || c.Images.Quality > 100 || c.Images.MinQuality > c.Images.Quality {
		return errors.New("images: need 1 <= min_quality <= quality <= 100")
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}
