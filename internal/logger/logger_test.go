package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestConfigureWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { Configure(Config{Level: "info"}) })

	Info().Str("route", "/login").Msg("request")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	if entry["route"] != "/login" || entry["message"] != "request" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestConfigureLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Configure(Config{Level: "info"}) })

	Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	Warn().Msg("shown")
	if buf.Len() == 0 {
		t.Fatalf("warn should be written")
	}
}
