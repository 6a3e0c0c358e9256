package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvLevel, "")

	var out bytes.Buffer
	logger, err := New("sync", &out)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hello")
	logger.Debug("hidden at the default level")

	line := strings.TrimSpace(out.String())
	if strings.Contains(line, "\n") {
		t.Fatalf("output = %q, want a single line", out.String())
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got := payload["app"]; got != "atlan-sync" {
		t.Fatalf("app = %v, want %q", got, "atlan-sync")
	}
	if got := payload["command"]; got != "sync" {
		t.Fatalf("command = %v, want %q", got, "sync")
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	t.Setenv(EnvFormat, "yaml")
	t.Setenv(EnvLevel, "")

	if _, err := New("sync", nil); err == nil {
		t.Fatal("expected invalid LOG_FORMAT error")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvLevel, "trace")

	if _, err := New("sync", nil); err == nil {
		t.Fatal("expected invalid LOG_LEVEL error")
	}
}

func TestNew_TextFormat(t *testing.T) {
	t.Setenv(EnvFormat, "text")
	t.Setenv(EnvLevel, "debug")

	var out bytes.Buffer
	logger, err := New("serve", &out)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("visible")

	if got := out.String(); !strings.Contains(got, "command=serve") {
		t.Fatalf("output = %q, want text attrs", got)
	}
}

func TestFallback_AlwaysStructured(t *testing.T) {
	var out bytes.Buffer
	Fallback("", &out).Error("boom", "exit_code", 1)

	var payload map[string]any
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got := payload["command"]; got != "atlan-sync" {
		t.Fatalf("command = %v, want the app name fallback", got)
	}
}
