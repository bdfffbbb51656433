package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		// Days
		{"1d", 24 * time.Hour, false},
		{"14d", 14 * 24 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},

		// Weeks
		{"1w", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"4w", 28 * 24 * time.Hour, false},

		// Standard Go durations
		{"5m", 5 * time.Minute, false},
		{"1h", time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"336h", 14 * 24 * time.Hour, false},
		{"1h30m", time.Hour + 30*time.Minute, false},

		// Edge cases
		{"0d", 0, false},
		{"0w", 0, false},
		{"", 0, false},
		{"  14d  ", 14 * 24 * time.Hour, false},

		// Errors
		{"invalid", 0, true},
		{"d", 0, true},
		{"w", 0, true},
		{"14x", 0, true},
		{"-1d", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
sync:
  interval: 1h
  schedule: "*/30 * * * *"
  output: /tmp/anomalies.ics
sources:
  - name: official
    url: https://example.com/anomalies.json
    filters:
      rules:
        - field: series
          prefix: Echo
  - name: local
    path: /tmp/anomalies.json
filters:
  mode: and
  rules:
    - field: country
      exact: portugal
      case_insensitive: true
notifications:
  enabled: true
  before: ["1d", "30m"]
ui:
  backend: Menu
  timezone: Europe/Lisbon
  countdown: Full
  imminent: 10m
  menu:
    program: rofi
    args: ["-dmenu", "-i"]
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if cfg.Sync.Interval != time.Hour || cfg.Sync.Schedule != "*/30 * * * *" || cfg.Sync.Output != "/tmp/anomalies.ics" {
		t.Errorf("unexpected sync config: %+v", cfg.Sync)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Type != "http" || cfg.Sources[1].Type != "file" {
		t.Errorf("source types = %q, %q", cfg.Sources[0].Type, cfg.Sources[1].Type)
	}
	if len(cfg.Sources[0].Filters.Rules) != 1 || cfg.Sources[0].Filters.Rules[0].Prefix != "Echo" {
		t.Errorf("per-source filters not parsed: %+v", cfg.Sources[0].Filters)
	}
	if cfg.Filters.Mode != "and" || !cfg.Filters.Rules[0].CaseInsensitive {
		t.Errorf("unexpected filters: %+v", cfg.Filters)
	}
	if !cfg.Notifications.Enabled || !cfg.Notifications.OnStart {
		t.Errorf("unexpected notifications: %+v", cfg.Notifications)
	}
	if len(cfg.Notifications.Before) != 2 || cfg.Notifications.Before[0] != 24*time.Hour || cfg.Notifications.Before[1] != 30*time.Minute {
		t.Errorf("Before = %v", cfg.Notifications.Before)
	}
	if cfg.UI.Backend != "menu" || cfg.UI.Countdown != "full" || cfg.UI.Imminent != 10*time.Minute {
		t.Errorf("unexpected ui: %+v", cfg.UI)
	}
	if cfg.UI.Menu.Program != "rofi" || len(cfg.UI.Menu.Args) != 2 {
		t.Errorf("unexpected menu: %+v", cfg.UI.Menu)
	}
	loc, err := cfg.UI.Location()
	if err != nil || loc.String() != "Europe/Lisbon" {
		t.Errorf("Location = %v, %v", loc, err)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`sources: [{url: "https://example.com/a.json"}]`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if cfg.Sync.Interval != 15*time.Minute {
		t.Errorf("Interval = %v", cfg.Sync.Interval)
	}
	if cfg.Sources[0].Name != "source-1" {
		t.Errorf("Name = %q", cfg.Sources[0].Name)
	}
	if cfg.Filters.Mode != "or" {
		t.Errorf("Mode = %q", cfg.Filters.Mode)
	}
	if cfg.UI.Backend != "auto" || cfg.UI.Countdown != "coarse" || cfg.UI.Imminent != 15*time.Minute {
		t.Errorf("unexpected ui defaults: %+v", cfg.UI)
	}
	if len(cfg.Notifications.Before) != 3 {
		t.Errorf("Before = %v", cfg.Notifications.Before)
	}
	if loc, _ := cfg.UI.Location(); loc != time.Local {
		t.Errorf("empty timezone should map to time.Local, got %v", loc)
	}

	if d := Default(); d.Sync.Interval != 15*time.Minute || len(d.Sources) != 0 {
		t.Errorf("unexpected Default: %+v", d)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "sources: [\n"},
		{"http without url", "sources: [{type: http}]"},
		{"file without path", "sources: [{type: file}]"},
		{"unknown type", "sources: [{type: caldav, url: x}]"},
		{"unknown countdown", "ui: {countdown: verbose}"},
		{"unknown backend", "ui: {backend: qt}"},
		{"unknown timezone", "ui: {timezone: Atlantis/Central}"},
		{"bad interval", "sync: {interval: soon}"},
		{"negative before", "notifications: {before: [\"-1h\"]}"},
		{"bad mode", "filters: {mode: xor}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Errorf("expected error for %q", tt.data)
			}
		})
	}
}

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sources: [{path: /tmp/a.json}]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.Sources[0].Type != "file" {
		t.Errorf("Type = %q, want file", cfg.Sources[0].Type)
	}

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestGetPassword(t *testing.T) {
	s := SourceConfig{Password: "plain"}
	if got, _ := s.GetPassword(); got != "plain" {
		t.Errorf("GetPassword = %q", got)
	}

	s = SourceConfig{PasswordCmd: "echo ' from-cmd '"}
	got, err := s.GetPassword()
	if err != nil {
		t.Fatalf("GetPassword error: %v", err)
	}
	if got != "from-cmd" {
		t.Errorf("GetPassword = %q, want from-cmd", got)
	}

	s = SourceConfig{PasswordCmd: "exit 3"}
	if _, err := s.GetPassword(); err == nil {
		t.Error("expected error from failing password_cmd")
	}
}

func TestSourceFor(t *testing.T) {
	s := SourceFor("https://example.com/anomalies.json")
	if s.Type != "http" || s.URL != "https://example.com/anomalies.json" {
		t.Errorf("SourceFor(url) = %+v", s)
	}

	s = SourceFor("/tmp/anomalies.json")
	if s.Type != "file" || s.Path != "/tmp/anomalies.json" {
		t.Errorf("SourceFor(path) = %+v", s)
	}
}
