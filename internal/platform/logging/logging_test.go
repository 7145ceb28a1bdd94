package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWritesJSONOutsideDevelopment(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New("production", "info", &buf)
	logger.Info().Str("tag", "messages").Msg("touched")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["tag"] != "messages" {
		t.Fatalf("tag = %v, want messages", line["tag"])
	}
	if _, ok := line["time"]; !ok {
		t.Fatalf("expected timestamp in %v", line)
	}
}

func TestNewWritesConsoleInDevelopment(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New("development", "debug", &buf)
	logger.Debug().Msg("hello")

	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected message in %q", buf.String())
	}
}

func TestNewHonorsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New("production", "warn", &buf)
	logger.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"bogus":   zerolog.InfoLevel,
		"error":   zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
