package testsupport

import (
	"path/filepath"
	"testing"

	"oakwood/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(base, "data")
	cfg.LogDir = filepath.Join(base, "logs")
	cfg.CoversDir = ""

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithOpenLibraryBaseURL points the metadata client at a test server.
func WithOpenLibraryBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.OpenLibrary.BaseURL = url
	}
}

// WithFetchTimeout overrides the metadata request bound, in seconds.
func WithFetchTimeout(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.OpenLibrary.TimeoutSeconds = seconds
	}
}
