// Package config builds configuration for end-to-end tests against
// a sqlite file and an in-process Redis.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/you/cookbookauth/internal/config"
)

// TestConfigFile returns a config file pointing at a fresh sqlite database
func TestConfigFile(t *testing.T, redisAddr string) *config.ConfigFile {
	t.Helper()

	f := &config.ConfigFile{}
	f.App.GinMode = "test"
	f.Database.Driver = "sqlite"
	f.Database.DSN = filepath.Join(t.TempDir(), "cookbook.db")
	f.Redis.Addr = redisAddr
	f.Session.SecureCookies = false
	f.Session.SameSite = "lax"
	f.Lockout.MaxAttempts = 3
	f.Lockout.Duration = "3m"
	f.Log.Level = "debug"
	return f
}

// LoadTestConfig writes f as yaml and loads it the way the service does
func LoadTestConfig(t *testing.T, f *config.ConfigFile) *config.Config {
	t.Helper()

	data, err := yaml.Marshal(f)
	if err != nil {
		t.Fatalf("marshal test config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("load test config: %v", err)
	}

	t.Logf("Test config loaded - DB: %s, Redis: %s, lockout store: %s", cfg.DSN, cfg.RedisAddr, cfg.LockoutStore)
	return cfg
}
