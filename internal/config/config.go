// Package config loads the service configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	Database struct {
		Driver string `yaml:"driver"` // "sqlite3" or "postgres"
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	JWTSecret string `yaml:"jwt_secret"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Notify struct {
		WebhookURL string   `yaml:"webhook_url"`
		Admins     []string `yaml:"admins"`
	} `yaml:"notify"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Port:      8080,
		LogLevel:  "info",
		JWTSecret: "change-me",
	}
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = "storekeep.db"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9090
	cfg.Metrics.Path = "/metrics"
	return cfg
}

// Load reads path and overlays it on the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
