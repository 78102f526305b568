package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LotfiJL/Jelo/pkg/infrastructure/auth"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Input.Delimiter != ";" {
		t.Errorf("Default delimiter = %q, want ;", cfg.Input.Delimiter)
	}
	if cfg.Input.Encoding != "latin1" {
		t.Errorf("Default encoding = %q, want latin1", cfg.Input.Encoding)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Default addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.DelimiterRune() != ';' {
		t.Errorf("DelimiterRune = %q, want ;", cfg.DelimiterRune())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "jelo.yaml")

	configContent := `
input:
  path: data/plan.csv
  delimiter: ","
  encoding: utf-8
projection:
  workers: 4
server:
  addr: 127.0.0.1:9090
  read_timeout: 5s
  rate_limit: 120
auth:
  users:
    - username: planner
      password_hash: $2a$10$abcdefghijklmnopqrstuu5R8zVY0iFJ8wvJWl7cY6b3p6t9k8K2a
log:
  level: debug
  format: json
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Input.Path != "data/plan.csv" || cfg.DelimiterRune() != ',' {
		t.Errorf("Unexpected input config %+v", cfg.Input)
	}
	if cfg.Projection.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Projection.Workers)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.RateLimit != 120 || cfg.Server.Burst != 0 {
		t.Errorf("RateLimit = %d/%d, want 120/0", cfg.Server.RateLimit, cfg.Server.Burst)
	}
	// unset values keep their defaults
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("WriteTimeout = %v, want default 30s", cfg.Server.WriteTimeout)
	}
	if len(cfg.Auth.Users) != 1 || cfg.Auth.Users[0].Username != "planner" {
		t.Errorf("Unexpected users %+v", cfg.Auth.Users)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log format = %q, want json", cfg.Log.Format)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"long delimiter", func(c *Config) { c.Input.Delimiter = ";;" }, "delimiter"},
		{"negative workers", func(c *Config) { c.Projection.Workers = -1 }, "workers"},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }, "rate_limit"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"user without hash", func(c *Config) { c.Auth.Users = []auth.User{{Username: "a"}} }, "password_hash"},
		{"duplicate user", func(c *Config) {
			c.Auth.Users = []auth.User{{Username: "a", PasswordHash: "x"}, {Username: "a", PasswordHash: "y"}}
		}, "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindAndSave(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	if _, err := Find(nested); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.Output.Format = "json"
	path := filepath.Join(root, "jelo.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	found, err := Find(nested)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if found != path {
		t.Errorf("Find = %s, want %s", found, path)
	}

	loaded, usedPath, err := LoadOrDefault("", nested)
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if usedPath != path || loaded.Output.Format != "json" {
		t.Errorf("Expected saved config from %s, got %s (%s)", path, usedPath, loaded.Output.Format)
	}
}
