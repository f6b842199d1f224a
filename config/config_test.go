package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("ENV", "test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:81" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr())
	}
	if cfg.Database.Driver != "sqlite3" || cfg.Database.Path != "dictionary.db" {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Auth.StudentMarker != "student" {
		t.Fatalf("unexpected student marker: %q", cfg.Auth.StudentMarker)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("unexpected session ttl: %s", cfg.Session.TTL)
	}
	if cfg.MQ.Backend != "" || cfg.Redis.URL != "" {
		t.Fatalf("optional backends should default to disabled")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SERVER_PORT", "8089")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("STUDENT_EMAIL_MARKER", "@pupils.")
	t.Setenv("LOGIN_RATE_WINDOW", "30s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 8089 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("unexpected driver: %s", cfg.Database.Driver)
	}
	if cfg.Auth.StudentMarker != "@pupils." {
		t.Fatalf("unexpected marker: %s", cfg.Auth.StudentMarker)
	}
	if cfg.Redis.LoginWindow != 30*time.Second {
		t.Fatalf("unexpected window: %s", cfg.Redis.LoginWindow)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: 9000\ndatabase:\n  path: /tmp/words.db\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Database.Path != "/tmp/words.db" {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
}
