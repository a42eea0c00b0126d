package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gridshooter/gridshooter/internal/config"
)

func logToFile(t *testing.T, format string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridshooter.log")
	log, err := newLogger(config.LoggingConfig{Level: "info", Format: format, File: path}, false)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	log.Info("match started")
	_ = log.Sync()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(raw)
}

func TestFileLoggerKeepsJSONLevels(t *testing.T) {
	out := logToFile(t, "json")
	if !strings.Contains(out, `"level":"info"`) {
		t.Fatalf("json log = %q", out)
	}
}

func TestFileLoggerConsoleHasNoColour(t *testing.T) {
	out := logToFile(t, "console")
	if !strings.Contains(out, "INFO") || strings.Contains(out, "\x1b[") {
		t.Fatalf("console log = %q", out)
	}
}

func TestTerminalWithoutFileDiscardsLogs(t *testing.T) {
	log, err := newLogger(config.LoggingConfig{Level: "debug", Format: "console"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(-1) {
		t.Fatal("expected a no-op logger")
	}
}
