package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func TestZerologAdapter_Debug(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))

	zl.Debug("test message", "key1", "value1", "key2", 42)

	entry := decode(t, &buf)
	if entry["level"] != "debug" {
		t.Errorf("expected level 'debug', got %v", entry["level"])
	}
	if entry["message"] != "test message" {
		t.Errorf("expected message 'test message', got %v", entry["message"])
	}
	if entry["key1"] != "value1" {
		t.Errorf("expected key1='value1', got %v", entry["key1"])
	}
	if entry["key2"] != float64(42) { // JSON numbers are float64
		t.Errorf("expected key2=42, got %v", entry["key2"])
	}
}

func TestZerologAdapter_Levels(t *testing.T) {
	tests := []struct {
		name string
		log  func(*ZerologAdapter)
		want string
	}{
		{"info", func(l *ZerologAdapter) { l.Info("m", "status", "ok") }, "info"},
		{"warn", func(l *ZerologAdapter) { l.Warn("m") }, "warn"},
		{"error", func(l *ZerologAdapter) { l.Error("m", "error", "boom") }, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewZerologAdapter(zerolog.New(&buf)))
			entry := decode(t, &buf)
			if entry["level"] != tt.want {
				t.Errorf("expected level %q, got %v", tt.want, entry["level"])
			}
		})
	}
}

func TestZerologAdapter_OddKeyValues(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZerologAdapter(zerolog.New(&buf))

	zl.Info("odd", "key", "value", "dangling", 7, "x")

	entry := decode(t, &buf)
	if entry["key"] != "value" {
		t.Errorf("expected key='value', got %v", entry["key"])
	}
	if _, ok := entry["dangling"]; !ok {
		t.Error("expected dangling pair to be kept")
	}
	if _, ok := entry["x"]; ok {
		t.Error("expected trailing key without value to be dropped")
	}
}

func TestNewZerolog_Level(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZerolog(&buf, "warn")

	zl.Info().Msg("filtered")
	zl.Warn().Msg("kept")

	out := buf.String()
	if bytes.Contains([]byte(out), []byte("filtered")) {
		t.Error("info should be filtered at warn level")
	}
	if !bytes.Contains([]byte(out), []byte("kept")) {
		t.Error("warn should be written")
	}
}

func TestNewZerolog_BadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZerolog(&buf, "loud")

	zl.Debug().Msg("hidden")
	zl.Info().Msg("shown")

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Error("debug should be filtered by default")
	}
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Error("info should be written")
	}
}
