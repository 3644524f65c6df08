package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message written at warn level: %s", out)
	}

	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %s", out)
	}

	buf.Reset()
	log.SetLevel("debug")
	log.Debug("now visible")

	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("debug message missing after SetLevel: %s", buf.String())
	}
}

func TestLogger_ForRun(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, "info").ForRun("abc-123", "size_by_year")
	log.Info("extracted", "rows", 3)

	out := buf.String()
	for _, want := range []string{"run_id=abc-123", "chart=size_by_year", "rows=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}
