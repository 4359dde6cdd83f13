// Package config loads navarasa configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/navarasa/internal/assess"
)

// EnvPath names the environment variable holding the config file path.
const EnvPath = "NAVARASA_CONFIG"

// DataDirName is the per-user data directory under $HOME.
const DataDirName = ".navarasa"

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Session SessionConfig `yaml:"session"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	StaticDir       string        `yaml:"static_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig controls the SQLite database.
type StoreConfig struct {
	// Path of the database file. Empty means ~/.navarasa/navarasa.db.
	Path string `yaml:"path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level       string `yaml:"level"` // debug | info | warn | error
	Development bool   `yaml:"development"`
}

// SessionConfig holds session defaults.
type SessionConfig struct {
	Locale string `yaml:"locale"` // en | id
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Load reads path, or the file named by NAVARASA_CONFIG when path is empty.
// With neither set it returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Session.Locale == "" {
		c.Session.Locale = assess.LocaleEnglish
	}
}

// Validate reports configuration values that cannot be used.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	lang := assess.BaseLanguage(c.Session.Locale)
	for _, l := range assess.Locales() {
		if lang == l {
			return nil
		}
	}
	return fmt.Errorf("unsupported locale %q", c.Session.Locale)
}

// DBPath returns the database path, creating the default data directory
// when no path is configured.
func (c *Config) DBPath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dbDir := filepath.Join(homeDir, DataDirName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dbDir, "navarasa.db"), nil
}

// FindWebDir searches for the web directory in common locations.
// It checks the configured StaticDir, then "web", "../web", "../../web",
// and ~/.navarasa/web. Returns the first existing directory or "".
func (c *Config) FindWebDir() string {
	candidates := []string{c.Server.StaticDir, "web", "../web", "../../web"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, DataDirName, "web"))
	}

	for _, p := range candidates {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
