// Package config loads application configuration from file and environment.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Addr           string   `mapstructure:"addr"`
	Environment    string   `mapstructure:"environment"` // "development" or "production"
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	StaticDir      string   `mapstructure:"static_dir"`

	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	Path   string `mapstructure:"path"`   // sqlite file path
	URL    string `mapstructure:"url"`    // postgres connection string
}

// SessionConfig configures the cookie session store.
type SessionConfig struct {
	Path         string `mapstructure:"path"`
	TTLHours     int    `mapstructure:"ttl_hours"`
	SweepMinutes int    `mapstructure:"sweep_minutes"`
}

// AdminConfig seeds the first admin account when the user table is empty
// of admins. Ignored when Username or Password is blank.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Email    string `mapstructure:"email"`
	Nome     string `mapstructure:"nome"`
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:        ":5000",
		Environment: "development",
		StaticDir:   "static",
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "amparo.db",
		},
		Session: SessionConfig{
			Path:         "sessions.db",
			TTLHours:     24 * 7,
			SweepMinutes: 60,
		},
	}
}

// Load reads configuration from config.yaml (working directory or /etc/amparo)
// and AMPARO_* environment variables, on top of the defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/amparo")

	viper.SetEnvPrefix("AMPARO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file is fine, defaults plus env apply.
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	return cfg, nil
}
