package metrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"silent", LevelSilent},
		{"off", LevelSilent},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithLevel(LevelWarn))

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("expected debug/info to be filtered, got:\n%s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("expected warn/error to be logged, got:\n%s", out)
	}
}

func TestLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithName("stream"))

	l.Info("chunk sealed", Fields{"chunk": 3, "bytes": 65536})

	out := buf.String()
	if !strings.Contains(out, "[stream]") {
		t.Errorf("expected logger name in output, got %q", out)
	}
	if !strings.Contains(out, "bytes=65536 chunk=3") {
		t.Errorf("expected sorted key=value fields, got %q", out)
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithFormat(FormatJSON), WithFields(Fields{"session": "s-1"}))

	l.Info("transfer started", Fields{"transfer_id": "t-1"})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "transfer started" {
		t.Errorf("expected msg field, got %v", entry["msg"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("expected level INFO, got %v", entry["level"])
	}
	if entry["session"] != "s-1" || entry["transfer_id"] != "t-1" {
		t.Errorf("expected merged fields, got %v", entry)
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(WithOutput(&buf), WithFields(Fields{"a": 1}))
	child := base.With(Fields{"b": 2})

	child.Info("msg")

	out := buf.String()
	if !strings.Contains(out, "a=1") || !strings.Contains(out, "b=2") {
		t.Errorf("expected both parent and child fields, got %q", out)
	}

	// The parent logger is unchanged.
	buf.Reset()
	base.Info("msg")
	if strings.Contains(buf.String(), "b=2") {
		t.Errorf("expected parent logger without child field, got %q", buf.String())
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithName("transfer")).Named("encrypt")

	l.Info("msg")

	if !strings.Contains(buf.String(), "[transfer.encrypt]") {
		t.Errorf("expected nested logger name, got %q", buf.String())
	}
}

func TestNullLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NullLogger()
	l.out = &buf

	l.Error("should not appear")
	if buf.Len() != 0 {
		t.Errorf("expected no output from null logger, got %q", buf.String())
	}
}
