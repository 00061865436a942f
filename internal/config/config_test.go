package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  ws_url: wss://play.example.com
  token: secret
reconnect:
  base_delay: 2s
  max_delay: 20s
  auth_close_limit: 5
session:
  event_buffer_size: 128
  ping_interval: 30s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.WSURL != "wss://play.example.com" {
		t.Errorf("WSURL = %q", cfg.Server.WSURL)
	}
	if cfg.Server.Token != "secret" {
		t.Errorf("Token = %q", cfg.Server.Token)
	}
	if cfg.Reconnect.BaseDelay != 2*time.Second {
		t.Errorf("BaseDelay = %v", cfg.Reconnect.BaseDelay)
	}
	if cfg.Reconnect.MaxDelay != 20*time.Second {
		t.Errorf("MaxDelay = %v", cfg.Reconnect.MaxDelay)
	}
	if cfg.Reconnect.AuthCloseLimit != 5 {
		t.Errorf("AuthCloseLimit = %d", cfg.Reconnect.AuthCloseLimit)
	}
	if cfg.Session.EventBufferSize != 128 {
		t.Errorf("EventBufferSize = %d", cfg.Session.EventBufferSize)
	}
	if cfg.Session.PingInterval != 30*time.Second {
		t.Errorf("PingInterval = %v", cfg.Session.PingInterval)
	}
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_PLAYGROUND_TOKEN", "from-env")

	path := writeConfig(t, `
server:
  ws_url: wss://play.example.com
  token: ${TEST_PLAYGROUND_TOKEN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Token != "from-env" {
		t.Errorf("Token = %q, want %q", cfg.Server.Token, "from-env")
	}
}

func TestLoadWithDefaults_FillsGaps(t *testing.T) {
	path := writeConfig(t, `
server:
  ws_url: wss://play.example.com
`)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Reconnect.BaseDelay != DefaultReconnectBaseDelay {
		t.Errorf("BaseDelay = %v, want %v", cfg.Reconnect.BaseDelay, DefaultReconnectBaseDelay)
	}
	if cfg.Reconnect.MaxDelay != DefaultReconnectMaxDelay {
		t.Errorf("MaxDelay = %v, want %v", cfg.Reconnect.MaxDelay, DefaultReconnectMaxDelay)
	}
	if cfg.Reconnect.AuthCloseLimit != DefaultAuthCloseLimit {
		t.Errorf("AuthCloseLimit = %d, want %d", cfg.Reconnect.AuthCloseLimit, DefaultAuthCloseLimit)
	}
	if cfg.Session.EventBufferSize != DefaultEventBufferSize {
		t.Errorf("EventBufferSize = %d, want %d", cfg.Session.EventBufferSize, DefaultEventBufferSize)
	}
}

func TestLoadWithDefaults_KeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  ws_url: wss://play.example.com
reconnect:
  base_delay: 500ms
`)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}
	if cfg.Reconnect.BaseDelay != 500*time.Millisecond {
		t.Errorf("BaseDelay = %v, want 500ms", cfg.Reconnect.BaseDelay)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a: mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Server.WSURL = "wss://play.example.com"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"ws scheme ok", func(c *Config) { c.Server.WSURL = "ws://localhost:8000" }, false},
		{"missing url", func(c *Config) { c.Server.WSURL = "" }, true},
		{"http scheme rejected", func(c *Config) { c.Server.WSURL = "https://play.example.com" }, true},
		{"zero base delay", func(c *Config) { c.Reconnect.BaseDelay = 0 }, true},
		{"max below base", func(c *Config) { c.Reconnect.MaxDelay = c.Reconnect.BaseDelay / 2 }, true},
		{"zero auth close limit", func(c *Config) { c.Reconnect.AuthCloseLimit = 0 }, true},
		{"zero event buffer", func(c *Config) { c.Session.EventBufferSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAndValidate(t *testing.T) {
	good := writeConfig(t, `
server:
  ws_url: wss://play.example.com
`)
	if _, err := LoadAndValidate(good); err != nil {
		t.Errorf("LoadAndValidate(good) = %v", err)
	}

	bad := writeConfig(t, `
reconnect:
  base_delay: 1s
`)
	if _, err := LoadAndValidate(bad); err == nil {
		t.Error("expected validation error for missing ws_url")
	}
}
