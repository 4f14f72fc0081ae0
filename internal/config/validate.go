package config

import (
	"errors"
	"fmt"
	"strings"
)

var validDownloadModes = map[string]bool{
	"source":       true,
	"translations": true,
	"both":         true,
}

var validTranslationModes = map[string]bool{
	"default":             true,
	"reviewed":            true,
	"proofread":           true,
	"translator":          true,
	"untranslated":        true,
	"onlytranslated":      true,
	"onlyreviewed":        true,
	"onlyproofread":       true,
	"sourceastranslation": true,
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/txbulk/config.toml"
		}
		return fmt.Errorf("api.token is required. Set TX_TOKEN env var or edit %s (create with 'txbulk config init')", defaultPath)
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	return nil
}

func (c *Config) validateDownload() error {
	if !validDownloadModes[c.Download.Mode] {
		return fmt.Errorf("download.mode must be one of source, translations, both; got %q", c.Download.Mode)
	}
	if !validTranslationModes[c.Download.TranslationMode] {
		return fmt.Errorf("download.translation_mode %q is not recognized", c.Download.TranslationMode)
	}
	if c.Download.MinimumPerc < 0 || c.Download.MinimumPerc > 100 {
		return errors.New("download.minimum_perc must be between 0 and 100")
	}
	if c.Download.Workers < 1 || c.Download.Workers > MaxWorkers {
		return fmt.Errorf("download.workers must be between 1 and %d", MaxWorkers)
	}
	for _, placeholder := range []string{"<project_slug>", "<resource_slug>", "<lang>", "<ext>"} {
		if !strings.Contains(c.Download.FileFilter, placeholder) {
			return fmt.Errorf("download.file_filter must contain %s", placeholder)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
