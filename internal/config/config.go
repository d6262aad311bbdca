// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; passwords go to the OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"pgscope/cli/internal/xdg"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel     string `json:"log_level"`
	PreviewLimit int    `json:"preview_limit"`
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults.
// A .env file in the working directory is honored for PGSCOPE_* overrides.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return c, err
		}
	} else if err := json.Unmarshal(data, &c); err != nil {
		return c, err
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PreviewLimit <= 0 {
		c.PreviewLimit = 50
	}
	if lvl := os.Getenv("PGSCOPE_LOG_LEVEL"); lvl != "" {
		c.LogLevel = lvl
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
