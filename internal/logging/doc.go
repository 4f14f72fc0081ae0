// Package logging constructs slog loggers for console and file output.
package logging
