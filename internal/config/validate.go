package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would break the
// application at runtime.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if strings.TrimSpace(c.LogDir) == "" {
		return fmt.Errorf("config: log_dir must not be empty")
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: log_format: unsupported value %q", c.LogFormat)
	}
	if strings.TrimSpace(c.OpenLibrary.BaseURL) == "" {
		return fmt.Errorf("config: openlibrary.base_url must not be empty")
	}
	if c.OpenLibrary.TimeoutSeconds < 0 {
		return fmt.Errorf("config: openlibrary.timeout_seconds must not be negative")
	}
	return nil
}
