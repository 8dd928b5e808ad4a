package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Mining.CountryColumn != "Country" {
		t.Errorf("country column = %q, want Country", cfg.Mining.CountryColumn)
	}
	if cfg.Mining.Workers < 1 {
		t.Errorf("workers = %d, want >= 1", cfg.Mining.Workers)
	}
	if cfg.Address() != "localhost:3000" {
		t.Errorf("Address() = %q", cfg.Address())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MINING_WORKERS", "3")
	t.Setenv("MINING_TIMEOUT", "5s")
	t.Setenv("CACHE_DIR", "")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a,http://b")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Mining.Workers != 3 {
		t.Errorf("workers = %d, want 3", cfg.Mining.Workers)
	}
	if cfg.Mining.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Mining.Timeout)
	}
	if cfg.Data.CacheDir != "" {
		t.Errorf("cache dir = %q, want empty", cfg.Data.CacheDir)
	}
	if len(cfg.Security.AllowedOrigins) != 2 {
		t.Errorf("allowed origins = %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  port: 8181
mining:
  workers: 2
  timeout: 15s
  max_length: 3
logger:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8181 {
		t.Errorf("port = %d, want 8181", cfg.Server.Port)
	}
	if cfg.Mining.Timeout != 15*time.Second {
		t.Errorf("timeout = %v, want 15s", cfg.Mining.Timeout)
	}
	if cfg.Mining.MaxLength != 3 {
		t.Errorf("max length = %d, want 3", cfg.Mining.MaxLength)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logger.Level)
	}
	// untouched sections keep defaults
	if cfg.Mining.QuantityColumn != "Quantity" {
		t.Errorf("quantity column = %q, want Quantity", cfg.Mining.QuantityColumn)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Error("Load() with missing config file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero workers", func(c *Config) { c.Mining.Workers = 0 }},
		{"negative max length", func(c *Config) { c.Mining.MaxLength = -1 }},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }},
		{"zero body limit", func(c *Config) { c.Data.MaxBodyBytes = 0 }},
		{"empty country column", func(c *Config) { c.Mining.CountryColumn = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("validate() should fail")
			}
		})
	}

	if err := Default().validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}
