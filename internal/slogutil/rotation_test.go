package slogutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"revue/internal/config"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"invalid", 0},
		{"100", 100},
		{"100B", 100},
		{"1kb", 1024},
		{"10MB", 10 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"1.5MB", int64(1.5 * 1024 * 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseSize(tt.input); got != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRotatingFile_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revue.log")

	rf, err := OpenRotatingFile(path, 50, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}

	line := []byte(strings.Repeat("a", 29) + "\n")
	for i := 0; i < 5; i++ {
		if _, err := rf.Write(line); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should exist: %v", p, err)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("backups beyond maxBackups should be removed")
	}
}

func TestNewFileLoggerWithRotation(t *testing.T) {
	dir := t.TempDir()

	logger, closer, err := NewFileLoggerWithRotation(filepath.Join(dir, "a.log"), slog.LevelDebug, "1MB", 3)
	if err != nil {
		t.Fatalf("NewFileLoggerWithRotation failed: %v", err)
	}
	logger.Info("rotating")
	_ = closer.Close()

	logger2, closer2, err := NewFileLoggerWithRotation(filepath.Join(dir, "b.log"), slog.LevelDebug, "", 3)
	if err != nil {
		t.Fatalf("NewFileLoggerWithRotation without rotation failed: %v", err)
	}
	logger2.Info("plain")
	_ = closer2.Close()

	data, err := os.ReadFile(filepath.Join(dir, "b.log"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "plain") {
		t.Errorf("expected log line in file, got %q", data)
	}
}

func TestLoggerFactory_EffectiveLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "warn"
	cfg.Logging.Operator = "error"

	f := NewLoggerFactory(t.TempDir(), cfg, 0)
	if got := f.EffectiveLevel("store"); got != slog.LevelWarn {
		t.Errorf("store level = %v, want %v", got, slog.LevelWarn)
	}
	if got := f.EffectiveLevel("operator"); got != slog.LevelError {
		t.Errorf("operator level = %v, want %v", got, slog.LevelError)
	}

	f = NewLoggerFactory(t.TempDir(), cfg, slog.LevelDebug)
	if got := f.EffectiveLevel("operator"); got != slog.LevelDebug {
		t.Errorf("CLI level should win, got %v", got)
	}
}

func TestLoggerFactory_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewLoggerFactory(dir, config.DefaultConfig(), 0)

	f.StoreLogger().Info("schema ready")
	f.OperatorLogger().Error("storage unavailable")
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "operator.log"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "storage unavailable") {
		t.Errorf("operator log missing alert: %q", data)
	}
}
