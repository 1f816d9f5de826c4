package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/retailpulse/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	return &Logger{zlog: zerolog.New(buf).With().Timestamp().Logger()}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v (%q)", err, buf.String())
	}
	return entry
}

func TestNewWithWriter_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"}, &buf)
			if l == nil {
				t.Fatal("Expected logger to be created")
			}
			if zerolog.GlobalLevel() != tt.want {
				t.Errorf("Expected global level %v, got %v", tt.want, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { logger.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { logger.Info("info message") }, "info message", "info"},
		{"warn", func() { logger.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { logger.Error("error message") }, "error message", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decode(t, &buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("Expected level %q, got %q", tt.wantLevel, entry["level"])
			}
			if entry["message"] != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, entry["message"])
			}
		})
	}
}

func TestWithFieldsAndStage(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.WithStage("S1_LOYALTY").WithFields(map[string]interface{}{
		"customer_id": "C001",
		"earned":      20,
	}).Info("ledger entry")

	entry := decode(t, &buf)
	if entry["stage"] != "S1_LOYALTY" {
		t.Errorf("Expected stage S1_LOYALTY, got %v", entry["stage"])
	}
	if entry["customer_id"] != "C001" {
		t.Errorf("Expected customer_id C001, got %v", entry["customer_id"])
	}
	if entry["earned"] != float64(20) {
		t.Errorf("Expected earned 20, got %v", entry["earned"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.WithError(errors.New("schema error")).WithField("table", "inventory").Error("load failed")

	entry := decode(t, &buf)
	if entry["error"] != "schema error" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
	if entry["table"] != "inventory" {
		t.Errorf("Expected table field, got %v", entry["table"])
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&config.Config{Env: "development", LogLevel: "info", LogFormat: "console"}, &buf)
	l.Info("test message")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
	}
}

func TestNop(t *testing.T) {
	// must not panic and must not write anywhere
	Nop().WithField("k", "v").Info("discarded")
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.WithRun("run-1").WithStage("S0_QUALITY").Info("stage done")

	entry := decode(t, &buf)
	if entry["run_id"] != "run-1" {
		t.Errorf("Expected run_id run-1, got %v", entry["run_id"])
	}
	if entry["stage"] != "S0_QUALITY" {
		t.Errorf("Expected stage S0_QUALITY, got %v", entry["stage"])
	}
}

func TestEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&config.Config{Env: "test", LogLevel: "warn", LogFormat: "json"}, &buf)

	if l.Enabled(zerolog.DebugLevel) {
		t.Error("debug should be disabled at warn level")
	}
	if !l.Enabled(zerolog.ErrorLevel) {
		t.Error("error should be enabled at warn level")
	}
	if Nop().Enabled(zerolog.ErrorLevel) {
		t.Error("nop logger should write nothing")
	}
}
