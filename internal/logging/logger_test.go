package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "json", "info", false)

	logger.Info("worker_line", "source", "primary/stdout", "line", "hello")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "worker_line" {
		t.Errorf("expected msg worker_line, got %v", record["msg"])
	}
	if record["source"] != "primary/stdout" {
		t.Errorf("expected source attr, got %v", record["source"])
	}
}

func TestNewLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "text", "info", false)

	logger.Info("worker_started", "worker", "primary")

	out := buf.String()
	if !strings.Contains(out, "worker_started") || !strings.Contains(out, "worker=primary") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestNewLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "text", "warn", false)

	logger.Info("should_be_dropped")
	logger.Warn("should_appear")

	out := buf.String()
	if strings.Contains(out, "should_be_dropped") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "should_appear") {
		t.Error("warn record should pass at warn level")
	}
}

func TestNewLoggerVerboseOverridesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "text", "error", true)

	if !logger.Enabled(nil, slog.LevelDebug) {
		t.Error("verbose should enable debug regardless of level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRotatingSinkWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tandem.log")
	sink := NewRotatingSink(path)
	defer sink.Close()

	if _, err := sink.Write([]byte("primary/stdout hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sink file: %v", err)
	}
	if !strings.Contains(string(data), "primary/stdout hello") {
		t.Errorf("sink file missing line: %s", data)
	}
}
