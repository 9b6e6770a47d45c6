package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// resetLogger resets the logger to default state for test isolation
func resetLogger() {
	_ = Init(Options{})
}

func TestInit_DefaultLevel_Info(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Output: buf})
	defer resetLogger()

	Info("test info")
	if !strings.Contains(buf.String(), "test info") {
		t.Error("Info message should be logged at default level")
	}

	buf.Reset()

	Debug("test debug")
	if strings.Contains(buf.String(), "test debug") {
		t.Error("Debug message should not be logged at default level")
	}
}

func TestInit_DebugLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	Debug("test debug message")
	if !strings.Contains(buf.String(), "test debug message") {
		t.Error("Debug message should be logged when Debug=true")
	}
}

func TestInit_QuietLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Quiet: true, Output: buf})
	defer resetLogger()

	Info("test info")
	Warn("test warn")
	if strings.Contains(buf.String(), "test info") || strings.Contains(buf.String(), "test warn") {
		t.Error("Info and Warn should not be logged when Quiet=true")
	}

	Error("test error")
	if !strings.Contains(buf.String(), "test error") {
		t.Error("Error message should be logged when Quiet=true")
	}
}

func TestQuiet_OverridesDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Debug: true, Quiet: true, Output: buf})
	defer resetLogger()

	Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Quiet should win over Debug, got %q", buf.String())
	}
}

func TestInit_Level(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Init(Options{Level: "warn", Output: buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer resetLogger()

	Info("skipped")
	Warn("kept")
	if strings.Contains(buf.String(), "skipped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("unexpected output at warn level: %q", buf.String())
	}
}

func TestInit_BadLevel(t *testing.T) {
	if err := Init(Options{Level: "verbose"}); err == nil {
		t.Error("Init() should reject an unknown level")
	}
	resetLogger()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("test message", "tokens", 12)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output should be valid JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "test message" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["tokens"] != float64(12) {
		t.Errorf("tokens = %v", record["tokens"])
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	custom := slog.New(slog.NewTextHandler(buf, nil))
	_ = Init(Options{Logger: custom, Debug: true})
	defer resetLogger()

	Info("via custom")
	if !strings.Contains(buf.String(), "via custom") {
		t.Error("custom logger should receive records")
	}
}

func TestComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Output: buf})
	defer resetLogger()

	Component("annotator").Info("ready")
	if !strings.Contains(buf.String(), "component=annotator") {
		t.Errorf("expected component attribute, got %q", buf.String())
	}
}

func TestWith_ReturnsLoggerWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Output: buf})
	defer resetLogger()

	With("model", "en_core_web_sm").Info("loaded")
	if !strings.Contains(buf.String(), "model=en_core_web_sm") {
		t.Errorf("expected model attribute, got %q", buf.String())
	}
}

func TestContextVariants(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	ctx := context.Background()
	DebugContext(ctx, "ctx debug")
	InfoContext(ctx, "ctx info")
	ErrorContext(ctx, "ctx error")

	for _, msg := range []string{"ctx debug", "ctx info", "ctx error"} {
		if !strings.Contains(buf.String(), msg) {
			t.Errorf("missing %q in output", msg)
		}
	}
	if !Enabled(ctx, slog.LevelDebug) {
		t.Error("Enabled(debug) should be true with Debug=true")
	}
}
