// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap loggers used across qa-assistant.
//
// The TUI owns the terminal, so interactive sessions log to a file. One-shot
// CLI commands log to stderr and default to warn level.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output targets understood by New besides a file path.
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

// Options configures a logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	Output string // stdout, stderr, or a file path
}

// New builds a logger from the given level, format and output target.
func New(opts Options) (*zap.Logger, error) {
	level := strings.TrimSpace(opts.Level)
	if level == "" {
		level = "info"
	}
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	writeSyncer, err := openOutput(opts.Output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(opts.Format), writeSyncer, zapLevel)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// NewWriter builds a logger that writes to w. Used by tests and by callers
// that already own an io.Writer.
func NewWriter(w io.Writer, level zapcore.Level, format string) *zap.Logger {
	core := zapcore.NewCore(newEncoder(format), zapcore.AddSync(w), level)
	return zap.New(core)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func newEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func openOutput(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", OutputStderr:
		return zapcore.Lock(os.Stderr), nil
	case OutputStdout:
		return zapcore.Lock(os.Stdout), nil
	}

	if err := os.MkdirAll(filepath.Dir(output), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	// SECURITY: Log files may contain questions; keep them owner-only
	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return zapcore.AddSync(file), nil
}
