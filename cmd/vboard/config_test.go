package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	resetVboardEnv(t)

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.SimURL != "ws://127.0.0.1:8083" {
		t.Fatalf("SimURL = %q, want ws://127.0.0.1:8083", cfg.SimURL)
	}
	if cfg.APIEnabled {
		t.Fatal("APIEnabled should default to false")
	}
	if cfg.ButtonHold != defaultButtonHold {
		t.Fatalf("ButtonHold = %s, want %s", cfg.ButtonHold, defaultButtonHold)
	}
	if cfg.EventBuffer != defaultEventBuffer {
		t.Fatalf("EventBuffer = %d, want %d", cfg.EventBuffer, defaultEventBuffer)
	}
	if cfg.ConfigPath != "" {
		t.Fatalf("ConfigPath = %q for a missing file, want empty", cfg.ConfigPath)
	}
	if !strings.HasSuffix(cfg.TracePath, filepath.Join("vboard", "trace.jsonl")) {
		t.Fatalf("TracePath = %q", cfg.TracePath)
	}
}

func TestLoadConfig_File(t *testing.T) {
	resetVboardEnv(t)

	configPath := writeTempConfig(t, `
sim-url: ws://sim.local:9000/board
board: ~/boards/de10.json
api-enabled: true
api-addr: 127.0.0.1:9999
button-hold: 500ms
event-buffer: 32
`)
	cfg, err := loadConfig(configPath)
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}

	home, _ := os.UserHomeDir()
	if cfg.SimURL != "ws://sim.local:9000/board" {
		t.Fatalf("SimURL = %q", cfg.SimURL)
	}
	if cfg.Board != filepath.Join(home, "boards", "de10.json") {
		t.Fatalf("Board = %q, want home-expanded path", cfg.Board)
	}
	if !cfg.APIEnabled || cfg.APIAddr != "127.0.0.1:9999" {
		t.Fatalf("API = %v %q", cfg.APIEnabled, cfg.APIAddr)
	}
	if cfg.ButtonHold != 500*time.Millisecond {
		t.Fatalf("ButtonHold = %s, want 500ms", cfg.ButtonHold)
	}
	if cfg.EventBuffer != 32 {
		t.Fatalf("EventBuffer = %d, want 32", cfg.EventBuffer)
	}
	if cfg.ConfigPath != configPath {
		t.Fatalf("ConfigPath = %q, want %q", cfg.ConfigPath, configPath)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	resetVboardEnv(t)

	configPath := writeTempConfig(t, `sim-url: ws://from-file:1`)
	t.Setenv("VBOARD_SIM_URL", "ws://from-env:2")
	t.Setenv("VBOARD_TRACE_ENABLED", "true")

	cfg, err := loadConfig(configPath)
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.SimURL != "ws://from-env:2" {
		t.Fatalf("SimURL = %q, want env value", cfg.SimURL)
	}
	if !cfg.TraceEnabled {
		t.Fatal("TraceEnabled should come from VBOARD_TRACE_ENABLED")
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	resetVboardEnv(t)

	tests := []struct {
		name         string
		configYAML   string
		errSubstring string
	}{
		{name: "http scheme", configYAML: `sim-url: http://127.0.0.1:8083`, errSubstring: "scheme"},
		{name: "missing host", configYAML: `sim-url: "ws://"`, errSubstring: "missing host"},
		{name: "zero event buffer", configYAML: `event-buffer: 0`, errSubstring: "event-buffer"},
		{name: "negative hold", configYAML: `button-hold: -1s`, errSubstring: "button-hold"},
		{name: "trace without path", configYAML: "trace-enabled: true\ntrace-path: \"\"", errSubstring: "trace-path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeTempConfig(t, tt.configYAML))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errSubstring) {
				t.Fatalf("error = %q, want substring %q", err.Error(), tt.errSubstring)
			}
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	resetVboardEnv(t)

	if _, err := loadConfig(writeTempConfig(t, "sim-url: [unclosed")); err == nil {
		t.Fatal("expected parse error for malformed config")
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func resetVboardEnv(t *testing.T) {
	t.Helper()

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, "VBOARD_") {
			continue
		}
		// t.Setenv restores the previous value on cleanup.
		t.Setenv(key, value)
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}
