package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tether/internal/services"
)

func newTestConsole(buf *bytes.Buffer, level slog.Level, addSource bool) *slog.Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)
	return slog.New(newConsoleHandler(buf, lv, addSource))
}

func TestConsoleHandlerComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsole(&buf, slog.LevelInfo, false)

	logger.Info("session claimed", String(FieldComponent, "workflow"), String(FieldSubject, "95.259"))

	line := buf.String()
	if !strings.Contains(line, "INFO workflow: session claimed") {
		t.Errorf("expected component prefix in output, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Errorf("component should not trail as key=value, got %q", line)
	}
	if !strings.Contains(line, "subject=95.259") {
		t.Errorf("expected subject attribute, got %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsole(&buf, slog.LevelInfo, false)

	logger.Info("note", String("reason", "no behavior file"))

	if !strings.Contains(buf.String(), `reason="no behavior file"`) {
		t.Errorf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerGroupPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsole(&buf, slog.LevelInfo, false)

	logger.WithGroup("run").Info("started", String("id", "abc"))

	if !strings.Contains(buf.String(), "run.id=abc") {
		t.Errorf("expected group-prefixed key, got %q", buf.String())
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsole(&buf, slog.LevelInfo, false)

	logger.Debug("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected debug record to be dropped, got %q", buf.String())
	}
}

func TestConsoleHandlerAddSource(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsole(&buf, slog.LevelDebug, true)

	logger.Debug("tracing")

	if !strings.Contains(buf.String(), "logger_test.go") {
		t.Errorf("expected caller location in output, got %q", buf.String())
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelInfo)
	logger := slog.New(newJSONHandler(&buf, lv, false))

	logger.Warn("queue nearly full", Int("pending", 12))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("expected ts field")
	}
	if entry["level"] != "warn" {
		t.Errorf("expected lowercase level, got %v", entry["level"])
	}
	if entry["msg"] != "queue nearly full" {
		t.Errorf("expected msg field, got %v", entry["msg"])
	}
	if entry["pending"] != float64(12) {
		t.Errorf("expected pending attribute, got %v", entry["pending"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tether.log")
	logger, err := New(Options{Level: "info", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("written to disk")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to disk") {
		t.Errorf("expected message in log file, got %q", string(data))
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelInfo)
	logger := slog.New(newJSONHandler(&buf, lv, false))

	ctx := services.WithSessionKey(context.Background(), "behavior_file_path=/data/95.259_log")
	ctx = services.WithSubject(ctx, "95.259")
	ctx = services.WithWorker(ctx, 3)

	WithContext(ctx, logger).Info("converting")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if entry[FieldSessionKey] != "behavior_file_path=/data/95.259_log" {
		t.Errorf("expected session key field, got %v", entry[FieldSessionKey])
	}
	if entry[FieldSubject] != "95.259" {
		t.Errorf("expected subject field, got %v", entry[FieldSubject])
	}
	if entry[FieldWorker] != float64(3) {
		t.Errorf("expected worker field, got %v", entry[FieldWorker])
	}
}

func TestWithContextNoFields(t *testing.T) {
	logger := NewNop()
	if got := WithContext(context.Background(), logger); got != logger {
		t.Error("expected same logger when context carries no fields")
	}
}

func TestFormatSubject(t *testing.T) {
	cases := []struct {
		experiment string
		subject    string
		stage      string
		want       string
	}{
		{"fp", "95.259", "Conversion", "fp · 95.259 (Conversion)"},
		{"fp", "95.259", "", "fp · 95.259"},
		{"", "95.259", "Discovery", "95.259 (Discovery)"},
		{"opto", "", "Scan", "opto · Scan"},
		{"", "", "", ""},
	}
	for _, tc := range cases {
		if got := FormatSubject(tc.experiment, tc.subject, tc.stage); got != tc.want {
			t.Errorf("FormatSubject(%q, %q, %q) = %q, want %q", tc.experiment, tc.subject, tc.stage, got, tc.want)
		}
	}
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	logger := NewComponentLogger(nil, "queue")
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	logger.Info("discarded")
}
