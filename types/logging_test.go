package types

import (
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace": LevelTrace,
		"DEBUG": LevelDebug,
		"Info":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
	}

	for name, want := range tests {
		got, err := ParseLogLevel(name)
		if err != nil {
			t.Errorf("error parsing %q: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseLogLevel(%q) = %v; want %v", name, got, want)
		}
	}

	if _, err := ParseLogLevel("chatty"); err == nil {
		t.Errorf("chatty shouldn't be a level")
	}
}

func TestLevelName(t *testing.T) {
	if got := LevelName(LevelTrace); got != "TRACE" {
		t.Errorf("got %q; want TRACE", got)
	}
	if got := LevelName(LevelWarn); got != "WARN" {
		t.Errorf("got %q; want WARN", got)
	}
}
