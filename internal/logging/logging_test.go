package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v", l.GetLevel())
	}
	l.WithField("step", 1).Debug("hop")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hop" || entry["step"] != float64(1) {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	var buf bytes.Buffer
	if _, err := New(&buf, "loud", "text"); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New(&buf, "info", "xml"); err == nil {
		t.Fatalf("expected format error")
	}
}
