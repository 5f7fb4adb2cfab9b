package validation

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/injectkit/errors"
)

type serverSection struct {
	Port        int    `mapstructure:"port" validate:"min=0,max=65535"`
	ContextPath string `mapstructure:"context_path" validate:"startswith=/"`
}

type sampleConfig struct {
	Name     string        `mapstructure:"name" validate:"required"`
	Greeting string        `yaml:"greeting" validate:"required,min=2"`
	Server   serverSection `mapstructure:"server"`
	MaxConns int           `validate:"min=1"`
}

func validSample() sampleConfig {
	return sampleConfig{
		Name:     "svc",
		Greeting: "hello",
		Server:   serverSection{Port: 8080, ContextPath: "/"},
		MaxConns: 4,
	}
}

func TestStructValid(t *testing.T) {
	if err := Struct(validSample()); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestStructReportsEveryField(t *testing.T) {
	cfg := validSample()
	cfg.Name = ""
	cfg.Server.Port = 70000
	cfg.MaxConns = 0

	err := Struct(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("unexpected code %s", appErr.Code)
	}

	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("expected []FieldError detail, got %T", appErr.Details["fields"])
	}
	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	if got["name"] != "is required" {
		t.Errorf("expected name to be required, got %v", got)
	}
	if got["server.port"] != "must be at most 65535" {
		t.Errorf("expected nested server.port error, got %v", got)
	}
	if _, ok := got["max_conns"]; !ok {
		t.Errorf("expected snake_case fallback for untagged field, got %v", got)
	}
}

func TestStructUsesYAMLTagWhenNoMapstructure(t *testing.T) {
	cfg := validSample()
	cfg.Greeting = "x"
	err := Struct(cfg)
	if err == nil || !strings.Contains(err.Error(), "greeting: must be at least 2") {
		t.Fatalf("expected greeting error, got %v", err)
	}
}

func TestStructRejectsNonStruct(t *testing.T) {
	if err := Struct(42); err == nil {
		t.Fatal("expected error for non-struct input")
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":        "name",
		"MaxConns":    "max_conns",
		"ContextPath": "context_path",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
