package config

const (
	defaultAPIBaseURL        = "https://rest.api.transifex.com"
	defaultRequestsPerSecond = 6.0
	defaultMaxRetries        = 4
	defaultDownloadMode      = "both"
	defaultTranslationMode   = "default"
	defaultWorkers           = 12
	defaultFileFilter        = "<project_slug>/<resource_slug>/<resource_slug>_<lang>.<ext>"
	defaultAddRemoteTimeout  = 300
	defaultPullTimeout       = 7200
	defaultOutputDir         = "~/transifex_downloads"
	defaultHistoryDir        = "~/.local/share/txbulk"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"

	// MaxWorkers is the hard cap on parallel download workers. Requesting
	// more would trip the platform's API rate limits.
	MaxWorkers = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:           defaultAPIBaseURL,
			RequestsPerSecond: defaultRequestsPerSecond,
			MaxRetries:        defaultMaxRetries,
		},
		Download: Download{
			Mode:              defaultDownloadMode,
			TranslationMode:   defaultTranslationMode,
			Workers:           defaultWorkers,
			SkipOnError:       true,
			SkipExistingFiles: true,
			FileFilter:        defaultFileFilter,
			AddRemoteTimeout:  defaultAddRemoteTimeout,
			PullTimeout:       defaultPullTimeout,
		},
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			HistoryDir: defaultHistoryDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
