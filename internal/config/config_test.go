package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Create a temporary YAML config file.
	yamlContent := []byte(`
etrade:
  consumer_key: "abc123"
  consumer_secret: "xyz789"
  sandbox: true
  web_username: "trader"
  web_password: "hunter2"
  cookie:
    name: "SID"
    value: "cookie-value"
    domain: ".etrade.com"
  headless: true
storage:
  data_dir: "/tmp/goetrade/data"
  sqlite_path: "/tmp/goetrade/goetrade.db"
logging:
  level: "info"
  format: "json"
record:
  symbols: ["AAPL", "MSFT"]
  interval_sec: 30
  backend: "both"
`)

	tmpFile, err := os.CreateTemp("", "goetrade-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	// Clear any environment overrides that might interfere.
	os.Unsetenv("ETRADE_CONSUMER_KEY")
	os.Unsetenv("ETRADE_CONSUMER_SECRET")
	os.Unsetenv("ETRADE_WEB_USERNAME")
	os.Unsetenv("ETRADE_WEB_PASSWORD")
	os.Unsetenv("ETRADE_SANDBOX")
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SQLITE_PATH")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- ETrade --
	if cfg.ETrade.ConsumerKey != "abc123" {
		t.Errorf("ETrade.ConsumerKey = %q, want %q", cfg.ETrade.ConsumerKey, "abc123")
	}
	if cfg.ETrade.ConsumerSecret != "xyz789" {
		t.Errorf("ETrade.ConsumerSecret = %q, want %q", cfg.ETrade.ConsumerSecret, "xyz789")
	}
	if !cfg.ETrade.Sandbox {
		t.Error("ETrade.Sandbox = false, want true")
	}
	if cfg.ETrade.WebUsername != "trader" {
		t.Errorf("ETrade.WebUsername = %q, want %q", cfg.ETrade.WebUsername, "trader")
	}
	if cfg.ETrade.Cookie.Name != "SID" || cfg.ETrade.Cookie.Domain != ".etrade.com" {
		t.Errorf("ETrade.Cookie = %+v, want name SID, domain .etrade.com", cfg.ETrade.Cookie)
	}
	if !cfg.ETrade.Headless {
		t.Error("ETrade.Headless = false, want true")
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/goetrade/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/goetrade/data")
	}
	if cfg.Storage.SQLitePath != "/tmp/goetrade/goetrade.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/goetrade/goetrade.db")
	}

	// -- Logging --
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}

	// -- Record --
	if len(cfg.Record.Symbols) != 2 || cfg.Record.Symbols[0] != "AAPL" {
		t.Errorf("Record.Symbols = %v, want [AAPL MSFT]", cfg.Record.Symbols)
	}
	if cfg.Record.IntervalSec != 30 {
		t.Errorf("Record.IntervalSec = %d, want 30", cfg.Record.IntervalSec)
	}
	if cfg.Record.Backend != "both" {
		t.Errorf("Record.Backend = %q, want %q", cfg.Record.Backend, "both")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	yamlContent := []byte(`
etrade:
  consumer_key: "yaml-key"
  consumer_secret: "yaml-secret"
  sandbox: true
storage:
  data_dir: "/original/data"
`)

	tmpFile, err := os.CreateTemp("", "goetrade-config-env-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	// Set environment overrides.
	os.Setenv("ETRADE_CONSUMER_KEY", "env-key")
	os.Setenv("ETRADE_SANDBOX", "false")
	os.Setenv("DATA_DIR", "/env/data")
	defer os.Unsetenv("ETRADE_CONSUMER_KEY")
	defer os.Unsetenv("ETRADE_SANDBOX")
	defer os.Unsetenv("DATA_DIR")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.ETrade.ConsumerKey != "env-key" {
		t.Errorf("ETrade.ConsumerKey = %q, want %q (env override)", cfg.ETrade.ConsumerKey, "env-key")
	}
	// consumer_secret should remain from YAML since no env override was set.
	if cfg.ETrade.ConsumerSecret != "yaml-secret" {
		t.Errorf("ETrade.ConsumerSecret = %q, want %q (from YAML)", cfg.ETrade.ConsumerSecret, "yaml-secret")
	}
	if cfg.ETrade.Sandbox {
		t.Error("ETrade.Sandbox = true, want false (env override)")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
}
