// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for Aleutian Sentry
// components.
//
// Built on Go's standard library slog package. Services log JSON to stdout
// for log collectors; the CLI logs text to stderr following Unix
// conventions. Both use the same Setup entry point:
//
//	logging.Setup(logging.Config{Service: "validator", Format: logging.FormatJSON})
//	slog.Info("validation complete", "overall_valid", true)
//
// The minimum level can be overridden per deployment through the
// SENTRY_LOG_LEVEL environment variable (debug, info, warn, error).
//
// This package does NOT automatically redact sensitive data. Callers must
// ensure response text and tool payloads logged at debug level are
// acceptable to persist.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the handler encoding.
type Format int

const (
	// FormatJSON emits one JSON object per line, for services.
	FormatJSON Format = iota

	// FormatText emits human-readable key=value lines, for the CLI.
	FormatText
)

// EnvLogLevel overrides the configured minimum level when set.
const EnvLogLevel = "SENTRY_LOG_LEVEL"

// Config controls logger construction. The zero value is a JSON logger to
// stdout at info level.
type Config struct {
	// Service is attached to every record as the "service" attribute.
	Service string

	// Level is the minimum level to emit. EnvLogLevel takes precedence.
	Level slog.Level

	// Format selects JSON or text encoding.
	Format Format

	// Output defaults to stdout for JSON and stderr for text.
	Output io.Writer
}

// New builds a slog.Logger from the config without installing it globally.
func New(cfg Config) *slog.Logger {
	level := cfg.Level
	if env := ParseLevel(os.Getenv(EnvLogLevel)); env != nil {
		level = *env
	}

	out := cfg.Output
	if out == nil {
		if cfg.Format == FormatText {
			out = os.Stderr
		} else {
			out = os.Stdout
		}
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == FormatText {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return logger
}

// Setup builds a logger from the config and installs it as the slog
// default. Call once at process startup.
func Setup(cfg Config) *slog.Logger {
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog.Level. Returns nil for empty or
// unrecognized input so callers can fall back to their configured default.
func ParseLevel(name string) *slog.Level {
	var level slog.Level
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil
	}
	return &level
}
