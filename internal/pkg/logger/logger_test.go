package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"a@example.com", "***@example.com"},
		{"not-an-email", "***@***"},
		{"", "***@***"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := RedactEmail(tt.email); got != tt.want {
				t.Errorf("RedactEmail(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestLoggerRedactsEmailFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, INFO)

	l.Log(INFO, "send attempt", "recipient_email", "john.doe@example.com")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["recipient_email"] != "jo***@example.com" {
		t.Errorf("recipient_email = %q, want redacted", entry["recipient_email"])
	}
	if strings.Contains(buf.String(), "john.doe@example.com") {
		t.Error("raw email leaked into log output")
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WARN)

	l.Log(INFO, "should be dropped")
	if buf.Len() != 0 {
		t.Errorf("INFO entry emitted at WARN level: %s", buf.String())
	}

	l.Log(ERROR, "should be kept")
	if buf.Len() == 0 {
		t.Error("ERROR entry not emitted")
	}
}
