package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("info", false, &buf); err != nil {
		t.Fatal(err)
	}
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	log.Debug().Msg("hidden")
	log.Info().Str("symbol", "BTC/USDT").Msg("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["message"] != "visible" || entry["symbol"] != "BTC/USDT" || entry["service"] != "regime-sentinel" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSetup_InvalidLevel(t *testing.T) {
	if err := Setup("loud", false, nil); err == nil {
		t.Fatal("expected error")
	}
}
