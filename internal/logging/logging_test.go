// ABOUTME: Tests for the go-logger backed logging provider.
// ABOUTME: Covers format selection, level normalisation, and the no-op fallback.
package logging

import (
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestNewProviderFormats(t *testing.T) {
	for _, format := range []string{"", "console", "json", "pretty"} {
		p, err := NewProvider(Config{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("NewProvider(%q) error: %v", format, err)
		}
		if p.GetLogger("ghost.client") == nil {
			t.Errorf("GetLogger returned nil for format %q", format)
		}
	}
}

func TestNewProviderRejectsUnknownFormat(t *testing.T) {
	if _, err := NewProvider(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"DEBUG", glog.Debug},
		{" warning ", glog.Warn},
		{"bogus", ""},
	}
	for _, tt := range tests {
		if got := normalizeLevel(tt.in); got != tt.want {
			t.Errorf("normalizeLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetWithoutInitIsNoOp(t *testing.T) {
	defaultProvider = nil
	log := Get("anything")
	log.Info("discarded", "key", "value")
}
