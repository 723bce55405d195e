package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{"debug", log.DebugLevel, false},
		{"INFO", log.InfoLevel, false},
		{"", log.InfoLevel, false},
		{"warning", log.WarnLevel, false},
		{"error", log.ErrorLevel, false},
		{"loud", log.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn")
	if err != nil {
		t.Fatal(err)
	}

	l.Info("hidden")
	l.Warn("shown", "body", "Cycloid")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "body=Cycloid") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, prefix) {
		t.Errorf("missing prefix: %q", out)
	}
}

func TestNop(t *testing.T) {
	Nop().Error("nothing")
}
