package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "ADMINDASH_") {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := LoadConfig(nil, io.Discard)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Stream || cfg.PollInterval != 10*time.Second || cfg.ReconnectDelay != 3*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.UI != UIWeb || cfg.StreamPath != pathStream || cfg.FetchMode != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Location() != time.Local {
		t.Fatalf("expected local time zone by default")
	}
}

func TestLoadConfigLayers(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "admindash.yaml")
	text := "base_url: http://yaml.example:9000/\n" +
		"stream: false\n" +
		"poll_interval: 30s\n" +
		"fetch_mode: Split\n" +
		"time_zone: UTC\n" +
		"log_level: debug\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ADMINDASH_CONFIG", path)
	t.Setenv("ADMINDASH_POLL_INTERVAL", "15s")
	t.Setenv("ADMINDASH_UI", "tui")

	cfg, err := LoadConfig([]string{"-ui", "none", "-reconnect-delay", "5s"}, io.Discard)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BaseURL != "http://yaml.example:9000" {
		t.Fatalf("base_url from yaml = %q", cfg.BaseURL)
	}
	if cfg.Stream {
		t.Fatalf("yaml stream=false was not applied")
	}
	if cfg.PollInterval != 15*time.Second {
		t.Fatalf("env should override yaml poll_interval, got %s", cfg.PollInterval)
	}
	if cfg.UI != UINone {
		t.Fatalf("flag should override env ui, got %q", cfg.UI)
	}
	if cfg.ReconnectDelay != 5*time.Second {
		t.Fatalf("reconnect delay = %s", cfg.ReconnectDelay)
	}
	if cfg.FetchMode != FetchSplit {
		t.Fatalf("fetch_mode not normalised: %q", cfg.FetchMode)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("time zone = %v", cfg.Location())
	}
}

func TestLoadConfigFlagCanDisableStream(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := LoadConfig([]string{"-stream=false"}, io.Discard)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Stream {
		t.Fatalf("expected -stream=false to disable streaming")
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		mut  func(c *Config)
		want string
	}{
		{"relative base url", func(c *Config) { c.BaseURL = "/api" }, "base_url"},
		{"bad ui", func(c *Config) { c.UI = "gtk" }, "ui"},
		{"bad fetch mode", func(c *Config) { c.FetchMode = "graphql" }, "fetch_mode"},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }, "poll_interval"},
		{"zero reconnect", func(c *Config) { c.ReconnectDelay = 0 }, "reconnect_delay"},
		{"stream path", func(c *Config) { c.StreamPath = "api/stream" }, "stream_path"},
		{"time zone", func(c *Config) { c.TimeZone = "Mars/Olympus" }, "time_zone"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mut(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearConfigEnv(t)
	if _, err := LoadConfig([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}, io.Discard); err == nil {
		t.Fatalf("expected missing config file error")
	}
}

func TestConfigNamedTimeZone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeZone = "America/New_York"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.Location().String(); got != "America/New_York" {
		t.Fatalf("location = %q", got)
	}
	got := cfg.TimeFormatter().FormatTime("2024-03-05T14:07:09Z")
	if got != "3/5/2024, 9:07:09 AM" {
		t.Fatalf("formatted = %q", got)
	}
}
