// Package logging configures structured logging: colored text with tint
// for terminals, or JSON for log collectors.
//
// Usage:
//
//	logger := logging.SetupWith(cfg.LogLevel, cfg.LogFormat) // installs the default logger
//	logger := logging.New(os.Stderr, "debug", "json")        // builds one without installing
//
// Values, as read from LOG_LEVEL and LOG_FORMAT by internal/config:
//
//	level: debug, info, warn, error (default: info)
//	format: text, json (default: text)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// SetupWith installs a default logger with the given level and format and
// returns it.
func SetupWith(level, format string) *slog.Logger {
	logger := New(os.Stderr, level, format)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w. Unknown levels fall back to info and
// unknown formats to colored text.
func New(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     lvl,
			AddSource: true,
		}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	}))
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
