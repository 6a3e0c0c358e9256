// Package logging builds the process-wide structured logger from the
// LOG_FORMAT and LOG_LEVEL environment variables.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvFormat selects the handler: json (default) or text.
	EnvFormat = "LOG_FORMAT"
	// EnvLevel selects the minimum severity: debug, info (default), warn, error.
	EnvLevel = "LOG_LEVEL"

	appName = "atlan-sync"
)

// New builds a logger for one subcommand, carrying the app and command
// as static attributes on every line. A nil writer means stdout.
// Invalid environment values are configuration errors, not silently
// defaulted.
func New(command string, w io.Writer) (*slog.Logger, error) {
	format := strings.ToLower(strings.TrimSpace(os.Getenv(EnvFormat)))
	switch format {
	case "", "json", "text":
	default:
		return nil, fmt.Errorf("%s must be one of: json, text", EnvFormat)
	}
	level, err := parseLevel(os.Getenv(EnvLevel))
	if err != nil {
		return nil, err
	}
	return build(format, level, command, w), nil
}

// Bootstrap builds the logger for command and installs it as the slog
// default, so package-level slog calls anywhere in the run share it.
func Bootstrap(command string) (*slog.Logger, error) {
	logger, err := New(command, os.Stdout)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// Fallback is the logger of last resort, used when the logging
// environment itself failed to parse: JSON at info, so startup
// failures still come out structured.
func Fallback(command string, w io.Writer) *slog.Logger {
	return build("json", slog.LevelInfo, command, w)
}

func build(format string, level slog.Level, command string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	if command = strings.TrimSpace(command); command == "" {
		command = appName
	}
	return slog.New(handler).With("app", appName, "command", command)
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%s must be one of: debug, info, warn, error", EnvLevel)
	}
}
