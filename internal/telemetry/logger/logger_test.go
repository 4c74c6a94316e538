package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, level, format string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: format, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_JSON(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")
	l.With("component", "test").Info("hello", "count", 3)

	entry := decode(t, buf)
	if entry["msg"] != "hello" || entry["component"] != "test" || entry["count"] != float64(3) {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestLogger_TextFormat(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "text")
	l.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newBufferLogger(t, "warn", "json")
	defer SetLevel("info")

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}

	SetLevel("debug")
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() = %q, want debug", GetLevel())
	}
	l.Debug("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("debug not logged after SetLevel(debug): %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"bogus", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	defer SetLevel("info")
	SetLevel("error")
	SetLevel("bogus")
	if got := GetLevel(); got != "error" {
		t.Errorf("GetLevel() = %q, want error", got)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("New() accepted an unknown level")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("New() accepted an unknown format")
	}
}

func TestRedaction(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"password key", "password", "hunter2", redactedValue},
		{"token key", "session_token", "abcdefghijklmnop", redactedValue},
		{"csrf key", "csrf", "abc", redactedValue},
		{"dsn key", "dsn", "postgres://u:p@h/db", redactedValue},
		{"bearer value", "header", "Bearer abcdefghijkl", "Bearer abc...jkl"},
		{"short bearer", "header", "Bearer abc", "Bearer ***"},
		{"plain value", "username", "alice", "alice"},
		{"empty sensitive", "password", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newBufferLogger(t, "info", "json")
			l.Info("x", tt.key, tt.val)
			entry := decode(t, buf)
			if entry[tt.key] != tt.want {
				t.Errorf("%s = %v, want %q", tt.key, entry[tt.key], tt.want)
			}
		})
	}
}

func TestRedactString(t *testing.T) {
	if got := RedactString("Bearer 0123456789"); got != "Bearer 012...789" {
		t.Errorf("RedactString() = %q", got)
	}
	if got := RedactString("plain"); got != "plain" {
		t.Errorf("RedactString(plain) = %q", got)
	}
}

func TestContextRequestID(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")

	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q", got)
	}

	l.With("component", "test").InfoContext(ctx, "scoped")
	entry := decode(t, buf)
	if entry["request_id"] != "req-1" || entry["component"] != "test" {
		t.Errorf("unexpected entry: %v", entry)
	}

	buf.Reset()
	l.Info("plain")
	if entry := decode(t, buf); entry["request_id"] != nil {
		t.Errorf("request_id added without context: %v", entry)
	}
}
