// Package appconfig loads the optional user config file that tunes the
// engine without ever persisting session state (notes, scrollback, and the
// yank buffer stay session-lifetime only).
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every user-tunable knob the engine reads at startup.
type Config struct {
	PrefixKey        string        `yaml:"prefix_key"`
	PrefixTimeout    time.Duration `yaml:"prefix_timeout"`
	ScrollbackLines  int           `yaml:"scrollback_lines"`
	IdleNotify       time.Duration `yaml:"idle_notify"`
	DefaultShell     string        `yaml:"default_shell"`
	DisableClipboard bool          `yaml:"disable_clipboard"`
}

// Defaults returns the built-in values used when a field is unset in the
// loaded file, or when no file exists at all.
func Defaults() Config {
	return Config{
		PrefixKey:       "ctrl+b",
		PrefixTimeout:   1 * time.Second,
		ScrollbackLines: 10000,
		IdleNotify:      0,
	}
}

// Dir returns the directory searched for config.yaml: $XDG_CONFIG_HOME/deckmux
// if set, else ~/.config/deckmux.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "deckmux")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "deckmux")
	}
	return filepath.Join(home, ".config", "deckmux")
}

// Load reads config.yaml from Dir(), merging it over Defaults().
// A missing file is not an error.
func Load() (Config, error) {
	return LoadFrom(filepath.Join(Dir(), "config.yaml"))
}

// LoadFrom reads and validates the config file at path, merging over
// Defaults(). A missing file returns Defaults() with no error.
func LoadFrom(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if file.PrefixKey != "" {
		cfg.PrefixKey = file.PrefixKey
	}
	if file.PrefixTimeout > 0 {
		cfg.PrefixTimeout = file.PrefixTimeout
	}
	if file.ScrollbackLines > 0 {
		cfg.ScrollbackLines = file.ScrollbackLines
	}
	if file.IdleNotify > 0 {
		cfg.IdleNotify = file.IdleNotify
	}
	if file.DefaultShell != "" {
		cfg.DefaultShell = file.DefaultShell
	}
	cfg.DisableClipboard = file.DisableClipboard

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ScrollbackLines <= 0 {
		return fmt.Errorf("scrollback_lines must be positive, got %d", c.ScrollbackLines)
	}
	if c.PrefixTimeout <= 0 {
		return fmt.Errorf("prefix_timeout must be positive, got %s", c.PrefixTimeout)
	}
	return nil
}
