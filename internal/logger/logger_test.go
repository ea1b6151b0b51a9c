//go:build unit

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go-community-app/internal/config"
)

func decodeLine(t *testing.T, line []byte) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("failed to unmarshal log output as json: %v\noutput: %s", err, line)
	}
	return entry
}

func TestLevels(t *testing.T) {
	tests := []struct {
		level   string
		emit    func(Logger)
		written bool
	}{
		{"warn", func(l Logger) { l.Info("skipped") }, false},
		{"warn", func(l Logger) { l.Warn("kept") }, true},
		{"info", func(l Logger) { l.Debug("skipped") }, false},
		{"debug", func(l Logger) { l.Debug("kept") }, true},
		{"", func(l Logger) { l.Info("kept") }, true},
		{"bogus", func(l Logger) { l.Debug("skipped") }, false},
		{"error", func(l Logger) { l.Error(errors.New("boom"), "kept") }, true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		tt.emit(New(config.LogConfig{Level: tt.level, Format: "json"}, &buf))
		if got := buf.Len() > 0; got != tt.written {
			t.Errorf("level %q: expected written=%v, got output %q", tt.level, tt.written, buf.String())
		}
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	New(config.LogConfig{Level: "info", Format: "console"}, &buf).Info("thread pinned")

	out := buf.String()
	if !strings.Contains(out, "thread pinned") {
		t.Errorf("expected message in console output, got %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected console output, got json: %s", out)
	}
}

func TestJSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Level: "info", Format: "json"}, &buf)

	log.With(map[string]interface{}{"post_id": 3}).Error(errors.New("disk full"), "vote failed")

	entry := decodeLine(t, buf.Bytes())
	if entry["level"] != "error" || entry["message"] != "vote failed" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["error"] != "disk full" {
		t.Errorf("expected error field, got %v", entry["error"])
	}
	if entry["post_id"] != float64(3) {
		t.Errorf("expected post_id field, got %v", entry["post_id"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected a timestamp")
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info("ignored")
	log.With(map[string]interface{}{"k": "v"}).Warn("ignored")
}
