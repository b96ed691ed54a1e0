// Package config resolves sitemeter settings from defaults, an optional
// TOML file, and the process environment, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds all sitemeter configuration.
type Config struct {
	SecretKey   string `toml:"secret_key"`
	UserID      string `toml:"user_id"`
	UserName    string `toml:"user_name"`
	UserEmail   string `toml:"user_email"`
	Description string `toml:"description"`
	Port        int    `toml:"port"`
	DataDir     string `toml:"data_dir"`
	SiteDir     string `toml:"site_dir"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		SecretKey:   "dev-secret-key-change-in-production",
		UserID:      "1",
		UserName:    "User",
		UserEmail:   "user@example.com",
		Description: "Basic Information Display",
		Port:        6001,
		DataDir:     "data",
		SiteDir:     "website",
	}
}

// Path returns the config file location: $SITEMETER_CONFIG if set,
// otherwise config.toml in the working directory.
func Path() string {
	if p := os.Getenv("SITEMETER_CONFIG"); p != "" {
		return p
	}
	return "config.toml"
}

// Load builds the effective configuration. A missing config file is not
// an error; a malformed file or environment value is.
func Load() (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path())
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(dst *string, name string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	setString(&cfg.SecretKey, "SECRET_KEY")
	setString(&cfg.UserID, "USER_ID")
	setString(&cfg.UserName, "USER_NAME")
	setString(&cfg.UserEmail, "USER_EMAIL")
	setString(&cfg.Description, "DESCRIPTION")
	setString(&cfg.DataDir, "DATA_DIR")
	setString(&cfg.SiteDir, "SITE_DIR")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	return nil
}

// DBPath returns the path of the billing database inside the data directory.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "billing.db")
}

// Addr returns the listen address derived from the configured port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
