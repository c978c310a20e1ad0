// Package config loads and validates Oakwood's TOML configuration.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/oakwood/config.toml, then ./oakwood.toml, falling back to
// built-in defaults when no file exists. Path fields are expanded and
// normalized during load so the rest of the application only ever sees
// absolute paths.
package config
