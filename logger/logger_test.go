package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: FormatJSON}, "test-svc", buf)
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.Service() != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.Service())
	}
}

func TestJSONOutputIncludesFields(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "debug")

	l.WithComponent("bundle").Info("injector created", Fields("stage", "production", "bindings", 4))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if entry["message"] != "injector created" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
	if entry[FieldComponent] != "bundle" {
		t.Errorf("expected component field, got %v", entry[FieldComponent])
	}
	if entry["stage"] != "production" {
		t.Errorf("expected stage field, got %v", entry["stage"])
	}
	if entry["service"] != "test-svc" {
		t.Errorf("expected service field, got %v", entry["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "warn")

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "nonsense")

	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug should be filtered at the fallback level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("info should pass at the fallback level")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info")
	l.WithError(errors.New("boom")).Error("failed")
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected error in output, got %q", buf.String())
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Error("nothing happens")
	l.WithComponent("x").Info("still nothing")
}

func TestGlobalLogger(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	var buf bytes.Buffer
	SetGlobalLogger(newJSONLogger(&buf, "info"))
	Info("global message", Fields("k", "v"))
	if !strings.Contains(buf.String(), "global message") {
		t.Errorf("expected global logger output, got %q", buf.String())
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(m) != 2 {
		t.Fatalf("expected 2 fields, got %d: %v", len(m), m)
	}
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("initialize", errors.New("bad"))
	if ef[FieldPhase] != "initialize" || ef[FieldError] != "bad" {
		t.Errorf("unexpected error fields: %v", ef)
	}
	df := DurationFields("run", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("unexpected duration: %v", df[FieldDuration])
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", func() Config { c := Config{}; c.ApplyDefaults(); return c }(), false},
		{"json", Config{Level: "debug", Format: FormatJSON}, false},
		{"bad level", Config{Level: "loud", Format: FormatJSON}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
