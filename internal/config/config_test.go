package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.Days != 30 {
		t.Errorf("days: got %d, want 30", cfg.DataSource.Days)
	}
	if len(cfg.DataSource.Assets) != 2 || cfg.DataSource.Assets[0] != "bitcoin" {
		t.Errorf("assets: got %v", cfg.DataSource.Assets)
	}
	if cfg.DataSource.BaseAsset != "bitcoin" {
		t.Errorf("base asset: got %q", cfg.DataSource.BaseAsset)
	}
	if cfg.DataSource.RetryDelay != 5*time.Second {
		t.Errorf("retry delay: got %v", cfg.DataSource.RetryDelay)
	}
	if cfg.Output.Dir != "visualizations" || cfg.Output.ReportFile != "report.md" {
		t.Errorf("output: %+v", cfg.Output)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port: got %d", cfg.Server.Port)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
data_source:
  days: 45
  assets: [bitcoin, ethereum, solana]
  base_asset: ethereum
database:
  sqlite_path: /tmp/other.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.Days != 45 {
		t.Errorf("days: got %d, want 45", cfg.DataSource.Days)
	}
	if len(cfg.DataSource.Assets) != 3 {
		t.Errorf("assets: got %v", cfg.DataSource.Assets)
	}
	if cfg.DataSource.BaseAsset != "ethereum" {
		t.Errorf("base asset: got %q", cfg.DataSource.BaseAsset)
	}
	if cfg.Database.SQLitePath != "/tmp/other.db" {
		t.Errorf("sqlite path: got %q", cfg.Database.SQLitePath)
	}
	// Untouched sections keep their defaults.
	if cfg.Log.Level != "info" {
		t.Errorf("log level: got %q", cfg.Log.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("COINGECKO_API_KEY", "env-key")
	t.Setenv("SQLITE_PATH", "/tmp/env.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.APIKey != "env-key" {
		t.Errorf("api key: got %q", cfg.DataSource.APIKey)
	}
	if cfg.Database.SQLitePath != "/tmp/env.db" {
		t.Errorf("sqlite path: got %q", cfg.Database.SQLitePath)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level: got %q", cfg.Log.Level)
	}
}

func TestLoad_RejectsBadWindow(t *testing.T) {
	path := writeConfig(t, "data_source:\n  days: 1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for days=1")
	}
}

func TestLoad_RejectsForeignBaseAsset(t *testing.T) {
	path := writeConfig(t, `
data_source:
  assets: [bitcoin, ethereum]
  base_asset: dogecoin
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for base_asset outside assets")
	}
}

func TestLoad_RejectsBadLogFormat(t *testing.T) {
	path := writeConfig(t, "log:\n  format: xml\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for log format")
	}
}
