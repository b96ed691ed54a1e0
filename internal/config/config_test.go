package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SITEMETER_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserID != "1" {
		t.Fatalf("UserID = %q, want %q", cfg.UserID, "1")
	}
	if cfg.Port != 6001 {
		t.Fatalf("Port = %d, want 6001", cfg.Port)
	}
	if cfg.Description != "Basic Information Display" {
		t.Fatalf("Description = %q", cfg.Description)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "user_name = \"From File\"\nport = 7100\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SITEMETER_CONFIG", path)
	t.Setenv("PORT", "7200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserName != "From File" {
		t.Fatalf("UserName = %q, want value from file", cfg.UserName)
	}
	if cfg.Port != 7200 {
		t.Fatalf("Port = %d, want env override 7200", cfg.Port)
	}
}

func TestLoadRejectsMalformedPort(t *testing.T) {
	t.Setenv("SITEMETER_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted malformed PORT")
	}
}

func TestDBPathUsesDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/sitemeter"

	want := filepath.Join("/var/lib/sitemeter", "billing.db")
	if got := cfg.DBPath(); got != want {
		t.Fatalf("DBPath = %q, want %q", got, want)
	}
}
