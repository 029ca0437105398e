package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newTestLogger() (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := New("test")
	l.SetWriter(buf)
	l.SetColorize(false)
	return l, buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger()
	l.SetLevel(WARN)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below WARN leaked through:\n%s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("WARN/ERROR messages missing:\n%s", out)
	}
}

func TestTextFormatContainsPrefixAndLevel(t *testing.T) {
	l, buf := newTestLogger()

	l.Info("connected to %s", "/dev/ttyACM0")

	out := buf.String()
	if !strings.Contains(out, "[INFO ]") {
		t.Errorf("missing level tag: %q", out)
	}
	if !strings.Contains(out, "test: connected to /dev/ttyACM0") {
		t.Errorf("missing prefix or formatted message: %q", out)
	}
}

func TestFieldsSortedInTextOutput(t *testing.T) {
	l, buf := newTestLogger()

	l.WithFields(Fields{"side": "left", "axis": "zoom", "value": 457}).Info("move")

	out := buf.String()
	if !strings.Contains(out, "{axis=zoom, side=left, value=457}") {
		t.Errorf("fields not sorted or missing: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	l, buf := newTestLogger()
	l.SetFormat(FormatJSON)

	l.WithField("line", "G1 X457 F10000").Debug("sent")
	l.SetLevel(DEBUG)
	l.WithField("line", "G1 X457 F10000").Debug("sent")

	var entry struct {
		Level   string                 `json:"level"`
		Logger  string                 `json:"logger"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if entry.Level != "DEBUG" || entry.Logger != "test" || entry.Message != "sent" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["line"] != "G1 X457 F10000" {
		t.Errorf("field missing: %+v", entry.Fields)
	}
}

func TestWithPrefixSharesSettings(t *testing.T) {
	l, buf := newTestLogger()
	l.SetLevel(DEBUG)

	child := l.WithPrefix("driver")
	child.Debug("hello")

	if !strings.Contains(buf.String(), "driver: hello") {
		t.Errorf("child prefix not applied: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warning", WARN},
		{"error", ERROR},
		{"bogus", INFO},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
