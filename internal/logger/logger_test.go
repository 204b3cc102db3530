package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	Info("server listening", "port", 5000)

	out := buf.String()
	if !strings.Contains(out, "server listening") {
		t.Errorf("Expected message in output, got %q", out)
	}
	if !strings.Contains(out, "port=5000") {
		t.Errorf("Expected port field in output, got %q", out)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json")

	Warn("invalid login", "user", "mallory")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Failed to parse JSON log line: %v", err)
	}
	if record["msg"] != "invalid login" {
		t.Errorf("Expected msg 'invalid login', got %v", record["msg"])
	}
	if record["user"] != "mallory" {
		t.Errorf("Expected user 'mallory', got %v", record["user"])
	}
	if record["level"] != "WARN" {
		t.Errorf("Expected level WARN, got %v", record["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text")

	Debug("should not appear")
	Info("should not appear either")
	Error("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("Expected debug/info suppressed at WARN level, got %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("Expected error output at WARN level, got %q", out)
	}
}

func TestInvalidLevelIgnored(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	SetLevel("NOPE")

	Info("still works")
	if !strings.Contains(buf.String(), "still works") {
		t.Errorf("Expected logger to keep previous level after invalid SetLevel")
	}
}
