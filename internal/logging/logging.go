// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the application's file logger.
//
// The TUI owns the terminal, so diagnostics never go to stderr while
// the program runs; everything is written to a log file under
// ~/.carelink instead. Channel state transitions, dropped frames and
// suppressed sends all land here.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/carelinkhq/carelink-tui/internal/config"
)

var (
	logger *zap.Logger = zap.NewNop()
	mu     sync.RWMutex
)

// Init builds the file logger from config and installs it as the
// package logger. Safe to call once at startup before the TUI takes
// over the terminal.
func Init(cfg config.LoggingConfig) (*zap.Logger, error) {
	path := cfg.Path
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve log directory: %w", err)
		}
		path = filepath.Join(dir, "carelink.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	logger = l
	mu.Unlock()
	return l, nil
}

// L returns the package logger. Before Init it is a nop logger, so
// call sites never have to nil-check.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetForTesting swaps in a test logger and returns a restore func.
func SetForTesting(l *zap.Logger) func() {
	mu.Lock()
	prev := logger
	logger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = logger.Sync()
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
