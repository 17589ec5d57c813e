package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jwebster45206/storyteller/internal/config"
)

func TestSetupTo_Production(t *testing.T) {
	var buf bytes.Buffer
	l := SetupTo(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelInfo})

	WithSession(l, "abc").Info("story accepted", "attempts", 2)
	l.Debug("hidden")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if rec["session_id"] != "abc" || rec["msg"] != "story accepted" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestSetupTo_Development(t *testing.T) {
	var buf bytes.Buffer
	l := SetupTo(&buf, &config.Config{Environment: "development", LogLevel: slog.LevelDebug})

	WithError(WithRequestID(l, "r1"), errors.New("boom")).Debug("failed")

	out := buf.String()
	for _, want := range []string{"request_id=r1", "error=boom", "msg=failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
