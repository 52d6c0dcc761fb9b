package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWithWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn")
	logger.Info("dropped")
	logger.Warn("kept", "reader_id", "r1")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"reader_id":"r1"`) {
		t.Fatalf("expected structured attribute in output: %s", out)
	}
}

func TestNewWithWriterInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "loud").Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected info output, got %q", buf.String())
	}
}
