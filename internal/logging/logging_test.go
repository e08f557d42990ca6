package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetTraceEnabled(false)
		SetVerbose(false)
		Configure("")
	})
	return &buf
}

func TestTraceDisabledWritesNothing(t *testing.T) {
	buf := capture(t)
	SetTraceEnabled(false)
	Trace("tab.switch", map[string]interface{}{"id": "1"})
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestTraceWritesJSONEntry(t *testing.T) {
	buf := capture(t)
	SetTraceEnabled(true)
	Trace("tab.switch", map[string]interface{}{"id": "1"})

	var entry struct {
		Event   string                 `json:"event"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON trace entry, got %q: %v", buf.String(), err)
	}
	if entry.Event != "tab.switch" || entry.Payload["id"] != "1" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestErrorAndDebugLevels(t *testing.T) {
	buf := capture(t)
	Error(nil)
	if buf.Len() != 0 {
		t.Fatalf("expected nil error to be ignored, got %q", buf.String())
	}
	Error(errors.New("boom"))
	Debug("hidden")
	if !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected error line, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("expected debug line suppressed, got %q", buf.String())
	}
	SetVerbose(true)
	Debug("shown", "tab", "1")
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "tab=1") {
		t.Fatalf("expected debug line once verbose, got %q", buf.String())
	}
}
