// Package logging configures the structured logger shared by the commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"logsmith/internal/config"
)

// EnvLevel names the environment variable consulted when no level flag is given.
const EnvLevel = config.EnvPrefix + "LOG_LEVEL"

// ParseLevel accepts debug, info, warn and error (case-insensitive). An empty
// string means warn so command output stays quiet by default.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return slog.LevelWarn, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q", s)
}

// New returns a text logger writing to w. When level is empty the
// LOGSMITH_LOG_LEVEL environment variable is used.
func New(w io.Writer, level string) (*slog.Logger, error) {
	if level == "" {
		level = config.Get(EnvLevel)
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Component tags a logger with the subsystem name.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	return l.With(slog.String("component", name))
}
