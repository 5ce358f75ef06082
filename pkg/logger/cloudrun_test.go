package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestCloudRunHandlerWritesSeverityAndData(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunWriterHandler(&buf, slog.LevelInfo)).With("request_id", "r1")

	log.Warn("page load failed", "error", errors.New("boom"), "page_size", 10)

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if event["severity"] != "WARNING" {
		t.Fatalf("severity mismatch: %v", event["severity"])
	}
	if event["message"] != "page load failed" {
		t.Fatalf("message mismatch: %v", event["message"])
	}
	data, ok := event["data"].(map[string]any)
	if !ok {
		t.Fatalf("data missing: %v", event)
	}
	if data["request_id"] != "r1" || data["error"] != "boom" || data["page_size"] != float64(10) {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestCloudRunHandlerGroupsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunWriterHandler(&buf, slog.LevelInfo)).WithGroup("ledger")

	log.Debug("dropped")
	if buf.Len() != 0 {
		t.Fatalf("debug record should be filtered, got %q", buf.String())
	}

	log.Info("loaded", "count", 3)
	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	data := event["data"].(map[string]any)
	if data["ledger.count"] != float64(3) {
		t.Fatalf("group prefix missing: %v", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
