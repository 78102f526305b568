// Package config provides configuration management for Jelo.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/LotfiJL/Jelo/pkg/infrastructure/auth"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Find when no configuration file exists
var ErrNotFound = errors.New("no jelo configuration found")

// Config represents the Jelo configuration.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Projection ProjectionConfig `yaml:"projection"`
	Output     OutputConfig     `yaml:"output"`
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
}

// InputConfig describes the planning file and how to decode it.
type InputConfig struct {
	// Path is the default planning file.
	Path string `yaml:"path"`

	// Delimiter is a single character, ";" by default.
	Delimiter string `yaml:"delimiter"`

	// Encoding is latin1, windows-1252, cp850 or utf-8.
	Encoding string `yaml:"encoding"`

	// DecimalComma accepts "12,5" in numeric cells.
	DecimalComma bool `yaml:"decimal_comma"`
}

// ProjectionConfig contains engine settings.
type ProjectionConfig struct {
	// Workers bounds concurrent reference folds; 0 uses every CPU.
	Workers int `yaml:"workers"`
}

// OutputConfig contains export settings.
type OutputConfig struct {
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// ServerConfig contains dashboard settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// RateLimit caps requests per minute and client; 0 disables it.
	RateLimit int `yaml:"rate_limit"`
	Burst     int `yaml:"burst"`
}

// AuthConfig lists the dashboard accounts.
type AuthConfig struct {
	Realm string      `yaml:"realm"`
	Users []auth.User `yaml:"users"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Delimiter: ";",
			Encoding:  "latin1",
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			Realm: auth.DefaultRealm,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a file, on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// Save saves the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Find searches for a configuration file starting from the given directory and walking up.
func Find(startDir string) (string, error) {
	candidates := []string{
		"jelo.yaml",
		"jelo.yml",
		".jelo/config.yaml",
	}

	dir := startDir
	for {
		for _, candidate := range candidates {
			path := filepath.Join(dir, candidate)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrNotFound
}

// LoadOrDefault loads path when set, otherwise the nearest config above dir, otherwise defaults.
func LoadOrDefault(path, dir string) (*Config, string, error) {
	if path != "" {
		config, err := Load(path)
		return config, path, err
	}

	found, err := Find(dir)
	if err != nil {
		return DefaultConfig(), "", nil
	}
	config, err := Load(found)
	return config, found, err
}

// Validate checks values the loaders and server cannot recover from.
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Input.Delimiter) > 1 {
		return fmt.Errorf("input.delimiter must be a single character, got %q", c.Input.Delimiter)
	}
	if c.Projection.Workers < 0 {
		return fmt.Errorf("projection.workers cannot be negative")
	}
	if c.Server.RateLimit < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("server.rate_limit and server.burst cannot be negative")
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}

	seen := make(map[string]bool)
	for i, user := range c.Auth.Users {
		if user.Username == "" {
			return fmt.Errorf("auth.users[%d]: username cannot be empty", i)
		}
		if seen[user.Username] {
			return fmt.Errorf("auth.users[%d]: duplicate username %s", i, user.Username)
		}
		seen[user.Username] = true
		if user.PasswordHash == "" {
			return fmt.Errorf("auth.users[%d]: password_hash cannot be empty", i)
		}
	}

	return nil
}

// DelimiterRune returns the configured delimiter, ';' when unset
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	if r == utf8.RuneError {
		return ';'
	}
	return r
}
