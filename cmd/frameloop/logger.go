package main

import (
	"io"
	"log/slog"
)

// newLogger creates a slog.Logger for the given level and format strings.
// Unknown levels fall back to info, unknown formats to text.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(outW, handlerOpts))
}
