// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected default format 'console', got '%s'", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected default timestamp to be true")
	}
	if cfg.File.Enabled {
		t.Error("expected file sink to be disabled by default")
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{
		Level:     "debug",
		Format:    "json",
		Timestamp: true,
		Output:    &buf,
	})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected output to contain level, got: %s", output)
	}
}

func TestInitConsole(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{Level: "info", Format: "console", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Msg("console test")

	if strings.Contains(buf.String(), `"level"`) {
		t.Errorf("expected console format (not JSON): %s", buf.String())
	}
}

func TestInitWithFileSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "latest.log")
	var console bytes.Buffer

	Init(Config{
		Level:  "info",
		Format: "json",
		Output: &console,
		File:   FileConfig{Enabled: true, Path: path, MaxSizeMB: 1},
	})
	t.Cleanup(func() {
		_ = Close()
		Init(DefaultConfig())
	})

	Warn().Str("job", "BackupTask").Msg("written twice")

	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "written twice") {
		t.Errorf("file sink missing message: %s", data)
	}
	if !strings.Contains(console.String(), "written twice") {
		t.Errorf("console sink missing message: %s", console.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	original := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(original)
		Init(DefaultConfig())
	})

	tests := []struct {
		name    string
		logFunc func()
		level   string
	}{
		{"Debug", func() { Debug().Msg("debug msg") }, `"level":"debug"`},
		{"Info", func() { Info().Msg("info msg") }, `"level":"info"`},
		{"Warn", func() { Warn().Msg("warn msg") }, `"level":"warn"`},
		{"Error", func() { Error().Msg("error msg") }, `"level":"error"`},
		{"Err", func() { Err(errors.New("boom")).Msg("err msg") }, `"error":"boom"`},
	}

	for _, tt := range tests {
		buf.Reset()
		tt.logFunc()
		if !strings.Contains(buf.String(), tt.level) {
			t.Errorf("%s: expected %s in output: %s", tt.name, tt.level, buf.String())
		}
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { Init(DefaultConfig()) })

	logger := With().Str("component", "process").Logger()
	logger.Info().Msg("component message")

	if !strings.Contains(buf.String(), `"component":"process"`) {
		t.Errorf("expected component field in output: %s", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	original := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

	SetLevelString("error")
	if zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Errorf("expected ErrorLevel, got %v", zerolog.GlobalLevel())
	}
}
