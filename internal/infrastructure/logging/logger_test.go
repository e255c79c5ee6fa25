package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/XolifyDev/mizan-core/internal/infrastructure/config"
)

func TestNewFormats(t *testing.T) {
	for _, tt := range []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"json to stdout", config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{"text to stderr", config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}},
		{"empty config falls back", config.LoggingConfig{}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if logger := New(tt.cfg, "1.0.0"); logger == nil {
				t.Fatal("New() returned nil")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestWithReturnsChildLogger(t *testing.T) {
	logger := Default()

	child := logger.With("component", "mqtt")
	if child == nil {
		t.Fatal("With() returned nil")
	}
	if child == logger {
		t.Error("With() returned the parent logger")
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
}

func TestOutputCarriesDefaultFields(t *testing.T) {
	var buf bytes.Buffer

	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}).
		WithAttrs([]slog.Attr{
			slog.String("service", "mizan"),
			slog.String("version", "test"),
		})

	logger := (&Logger{Logger: slog.New(handler)}).With("component", "api")
	logger.Info("test message", "key", "value")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	for field, want := range map[string]string{
		"service":   "mizan",
		"version":   "test",
		"component": "api",
		"msg":       "test message",
		"key":       "value",
	} {
		if entry[field] != want {
			t.Errorf("entry[%q] = %v, want %q", field, entry[field], want)
		}
	}
}
