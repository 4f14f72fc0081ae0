package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"txbulk/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// FilePath, when set, duplicates log output into the given file.
	FilePath string
	// Writer overrides the default stderr writer (used by tests).
	Writer io.Writer
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := parseLevel(opts.Level)

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	closeFn := func() error { return nil }
	if path := strings.TrimSpace(opts.FilePath); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("ensure log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		writer = io.MultiWriter(writer, file)
		closeFn = file.Close
	}

	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}

	var handler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "json":
		handler = slog.NewJSONHandler(writer, handlerOpts)
	case "console", "":
		handler = slog.NewTextHandler(writer, handlerOpts)
	default:
		_ = closeFn()
		return nil, nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	return slog.New(handler), closeFn, nil
}

// NewFromConfig creates a logger using application config defaults, writing a
// per-run log file under the history directory.
func NewFromConfig(cfg *config.Config) (*slog.Logger, func() error, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}
	opts := Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Paths.HistoryDir != "" {
		opts.FilePath = filepath.Join(cfg.Paths.HistoryDir, "txbulk.log")
	}
	return New(opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}
