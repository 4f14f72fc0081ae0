package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"txbulk/internal/config"
	"txbulk/internal/logging"
	"txbulk/internal/services"
	"txbulk/internal/services/transifex"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce  sync.Once
	logger      *slog.Logger
	loggerClose func() error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

// ensureLogger builds the shared logger once. The log file handle stays open
// until process exit; closeLogger exists for the sync path that wants a
// clean flush.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			c.loggerClose = func() error { return nil }
			return
		}
		opts := logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		}
		if cfg.Paths.HistoryDir != "" {
			opts.FilePath = filepath.Join(cfg.Paths.HistoryDir, "txbulk.log")
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			opts.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		logger, closeFn, err := logging.New(opts)
		if err != nil {
			c.logger = logging.NewNop()
			c.loggerClose = func() error { return nil }
			return
		}
		c.logger = logger
		c.loggerClose = closeFn
	})
	return c.logger
}

// apiClient builds a platform client from the loaded config. A missing token
// is an auth error up front rather than a 401 later.
func (c *commandContext) apiClient() (*transifex.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.API.Token) == "" {
		return nil, services.Wrap(services.ErrAuth, "cli", "client",
			"no API token configured (set api.token or export TX_TOKEN)", nil)
	}
	return transifex.NewClient(transifex.Options{
		BaseURL:           cfg.API.BaseURL,
		Token:             cfg.API.Token,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		MaxRetries:        cfg.API.MaxRetries,
	}), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
