package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("BLAGAJNA_CONFIG", "/nonexistent/config.toml")
	t.Setenv("BLAGAJNA_STORE_ID", "store-7")
	t.Setenv("BLAGAJNA_REMOTE_BASE_URL", "https://central.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.StoreID != "store-7" {
		t.Fatalf("expected store-7, got %q", cfg.StoreID)
	}
	if cfg.Remote.BaseURL != "https://central.example" {
		t.Fatalf("env override not applied, got %q", cfg.Remote.BaseURL)
	}
	if cfg.Sync.MaxAttempts != 3 || cfg.Sync.BaseDelay != time.Second {
		t.Fatalf("unexpected sync defaults %+v", cfg.Sync)
	}
	if cfg.Sync.Schedule != "*/5 * * * *" {
		t.Fatalf("unexpected schedule %q", cfg.Sync.Schedule)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected server addr %q", cfg.Server.Addr)
	}
}

func TestLoadRequiresStoreID(t *testing.T) {
	t.Setenv("BLAGAJNA_CONFIG", "/nonexistent/config.toml")
	t.Setenv("BLAGAJNA_STORE_ID", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing store_id")
	}
}
