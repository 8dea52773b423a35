// Package logging provides the structured logger used across the storefront
// services. It is a thin wrapper around log/slog so call sites can log
// key/value pairs without caring about handler configuration.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with storefront-specific helpers.
type Logger struct {
	*slog.Logger
}

// Options controls handler construction.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Unknown values
	// fall back to info.
	Level string
	// Format is "json" (default) or "text". Text output is meant for
	// local development only.
	Format string
	// Writer defaults to os.Stdout.
	Writer io.Writer
}

// New creates a JSON logger at the given level.
func New(level string) *Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions creates a logger with explicit handler options.
func NewWithOptions(opts Options) *Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Default returns a logger with default settings.
func Default() *Logger {
	return New("info")
}

// Component returns a child logger tagged with the originating component,
// e.g. "availability" or "tracker".
func (l *Logger) Component(name string) *Logger {
	if l == nil {
		return Default().Component(name)
	}
	return &Logger{Logger: l.Logger.With("component", name)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
