package config

const (
	defaultDataDir             = "~/.local/share/oakwood"
	defaultLogDir              = "~/.local/share/oakwood/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultOpenLibraryBaseURL  = "https://openlibrary.org"
	defaultFetchTimeoutSeconds = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		DataDir:   defaultDataDir,
		LogDir:    defaultLogDir,
		LogFormat: defaultLogFormat,
		LogLevel:  defaultLogLevel,
		OpenLibrary: OpenLibrary{
			BaseURL:        defaultOpenLibraryBaseURL,
			TimeoutSeconds: defaultFetchTimeoutSeconds,
		},
	}
}
