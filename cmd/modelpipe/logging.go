package main

import (
	"log/slog"
	"os"
	"strings"
)

// newLogger builds the stderr diagnostic logger. Stdout is reserved for
// protocol JSON, so diagnostics only ever go to stderr.
func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

// parseLevel maps a config level name to a slog level. Unknown names fall
// back to info.
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
