package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeSelection()
	c.normalizeDownload()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	out, err := expandPath(c.Paths.OutputDir)
	if err != nil {
		return err
	}
	c.Paths.OutputDir = out

	hist, err := expandPath(c.Paths.HistoryDir)
	if err != nil {
		return err
	}
	c.Paths.HistoryDir = hist
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		// TX_TOKEN is the variable the official CLI reads; honoring both
		// keeps a single token working for the API and the subprocess.
		for _, env := range []string{"TX_TOKEN", "TRANSIFEX_API_TOKEN"} {
			if v := strings.TrimSpace(os.Getenv(env)); v != "" {
				c.API.Token = v
				break
			}
		}
	}
	if c.API.RequestsPerSecond <= 0 {
		c.API.RequestsPerSecond = defaultRequestsPerSecond
	}
	if c.API.MaxRetries <= 0 {
		c.API.MaxRetries = defaultMaxRetries
	}
}

func (c *Config) normalizeSelection() {
	c.Selection.Organization = strings.TrimSpace(c.Selection.Organization)
	c.Selection.Projects = trimmedSlice(c.Selection.Projects)
	c.Selection.Languages = trimmedSlice(c.Selection.Languages)
}

func (c *Config) normalizeDownload() {
	c.Download.Mode = strings.ToLower(strings.TrimSpace(c.Download.Mode))
	if c.Download.Mode == "" {
		c.Download.Mode = defaultDownloadMode
	}
	c.Download.TranslationMode = strings.ToLower(strings.TrimSpace(c.Download.TranslationMode))
	if c.Download.TranslationMode == "" {
		c.Download.TranslationMode = defaultTranslationMode
	}
	if c.Download.Workers <= 0 {
		c.Download.Workers = defaultWorkers
	}
	if c.Download.Workers > MaxWorkers {
		c.Download.Workers = MaxWorkers
	}
	if strings.TrimSpace(c.Download.FileFilter) == "" {
		c.Download.FileFilter = defaultFileFilter
	}
	if c.Download.AddRemoteTimeout <= 0 {
		c.Download.AddRemoteTimeout = defaultAddRemoteTimeout
	}
	if c.Download.PullTimeout <= 0 {
		c.Download.PullTimeout = defaultPullTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func trimmedSlice(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
