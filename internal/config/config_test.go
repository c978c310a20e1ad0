package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"oakwood/internal/config"
)

func TestDefaultValues(t *testing.T) {
	cfg := config.Default()
	if cfg.LogFormat != "console" {
		t.Fatalf("expected console log format, got %q", cfg.LogFormat)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected info log level, got %q", cfg.LogLevel)
	}
	if cfg.OpenLibrary.BaseURL != "https://openlibrary.org" {
		t.Fatalf("unexpected openlibrary base url %q", cfg.OpenLibrary.BaseURL)
	}
	if cfg.FetchTimeout().Seconds() != 10 {
		t.Fatalf("expected 10s default fetch timeout, got %v", cfg.FetchTimeout())
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
log_format = "json"
log_level = "debug"

[openlibrary]
base_url = "https://example.test/"
timeout_seconds = 3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to be found, got %s exists=%v", path, resolved, exists)
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected logging config: %q %q", cfg.LogFormat, cfg.LogLevel)
	}
	if cfg.OpenLibrary.BaseURL != "https://example.test" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.OpenLibrary.BaseURL)
	}
	if cfg.FetchTimeout().Seconds() != 3 {
		t.Fatalf("expected 3s fetch timeout, got %v", cfg.FetchTimeout())
	}
	if cfg.DatabasePath() != filepath.Join(dir, "data", "oakwood.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`log_format = "xml"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestLoadMissingExplicitPathUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config to report exists=false")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %s, got %s", path, resolved)
	}
	if cfg.OpenLibrary.BaseURL != "https://openlibrary.org" {
		t.Fatalf("expected defaults, got %q", cfg.OpenLibrary.BaseURL)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[openlibrary]") {
		t.Fatal("expected sample to contain openlibrary section")
	}

	// The sample must parse and validate as-is.
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}
