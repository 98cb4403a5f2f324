package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
app_name: collab-test
run_mode: debug
server:
  port: 9090
data:
  database:
    source: postgres://localhost/collab
  redis:
    addr: localhost:6379
auth:
  jwt:
    secret: s3cret
identity:
  service_url: http://identity
  timeout: 750ms
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.AppName != "collab-test" {
		t.Errorf("AppName = %q", cfg.AppName)
	}
	if !cfg.IsDebug() {
		t.Error("expected debug run mode")
	}
	if got := cfg.Server.Addr(); got != "0.0.0.0:9090" {
		t.Errorf("Addr = %q", got)
	}
	if cfg.Auth.JWT.Secret != "s3cret" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWT.Secret)
	}
	if cfg.Identity.Timeout != 750*time.Millisecond {
		t.Errorf("identity timeout = %v", cfg.Identity.Timeout)
	}
	if cfg.Identity.CacheTTL != 5*time.Minute {
		t.Errorf("identity cache ttl default = %v", cfg.Identity.CacheTTL)
	}
	if cfg.Worker.MaxWorkers != 8 || cfg.Worker.QueueSize != 1024 {
		t.Errorf("worker defaults = %+v", cfg.Worker)
	}
	if cfg.Storage.Provider != "filesystem" {
		t.Errorf("storage provider default = %q", cfg.Storage.Provider)
	}

	got, err := GetConfig()
	if err != nil || got != cfg {
		t.Errorf("GetConfig returned %v, %v", got, err)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("COLLAB_AUTH_JWT_SECRET", "from-env")
	cfg, err := LoadConfig(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Auth.JWT.Secret != "from-env" {
		t.Errorf("jwt secret = %q, want env override", cfg.Auth.JWT.Secret)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestListsFromEnvironment(t *testing.T) {
	t.Setenv("COLLAB_MESSAGING_BROKERS", "k1:9092, k2:9092")
	cfg, err := LoadConfig(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := cfg.Messaging.Brokers; len(got) != 2 || got[0] != "k1:9092" || got[1] != "k2:9092" {
		t.Errorf("brokers = %q", got)
	}
}
