// Package config provides configuration loading for anomalybar.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Sync          SyncConfig         `yaml:"sync"`
	Sources       []SourceConfig     `yaml:"sources"`
	Filters       FilterConfig       `yaml:"filters"`
	Notifications NotificationConfig `yaml:"notifications"`
	UI            UIConfig           `yaml:"ui"`
}

// SyncConfig configures how often anomaly documents are refreshed.
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
	Schedule string        `yaml:"schedule"` // cron expression; overrides interval when set
	Output   string        `yaml:"output"`   // optional ICS export path
}

// SourceConfig configures an anomaly document source.
type SourceConfig struct {
	Name        string       `yaml:"name"`
	Type        string       `yaml:"type"` // "http" or "file"
	URL         string       `yaml:"url,omitempty"`
	Path        string       `yaml:"path,omitempty"`
	Username    string       `yaml:"username,omitempty"`
	Password    string       `yaml:"password,omitempty"`
	PasswordCmd string       `yaml:"password_cmd,omitempty"`
	Filters     FilterConfig `yaml:"filters,omitempty"` // Per-source filters (include)
}

// FilterConfig configures anomaly filtering.
type FilterConfig struct {
	Mode  string       `yaml:"mode"` // "or" or "and"
	Rules []FilterRule `yaml:"rules"`
}

// FilterRule defines a single filter rule.
// Use exactly one of: Contains, Exact, Prefix, Suffix, or Regex.
type FilterRule struct {
	Field           string `yaml:"field"`              // "series", "city", "country", "location", "timezone", "winner"
	Contains        string `yaml:"contains,omitempty"` // Substring match
	Exact           string `yaml:"exact,omitempty"`    // Exact string match
	Prefix          string `yaml:"prefix,omitempty"`   // Starts with
	Suffix          string `yaml:"suffix,omitempty"`   // Ends with
	Regex           string `yaml:"regex,omitempty"`    // Regular expression
	CaseInsensitive bool   `yaml:"case_insensitive"`
}

// NotificationConfig configures desktop notifications.
type NotificationConfig struct {
	Enabled bool            `yaml:"enabled"`
	Before  []time.Duration `yaml:"before"`
	OnStart bool            `yaml:"on_start"`
}

// UIConfig configures how anomalies are presented.
type UIConfig struct {
	Backend   string        `yaml:"backend"`   // "auto", "gtk" or "menu"
	Timezone  string        `yaml:"timezone"`  // viewer zone; empty means the system zone
	Countdown string        `yaml:"countdown"` // "coarse" or "full"
	Imminent  time.Duration `yaml:"imminent"`  // tray switches to the imminent icon below this
	Menu      MenuConfig    `yaml:"menu"`
}

// MenuConfig configures the dmenu-compatible picker.
type MenuConfig struct {
	Program string   `yaml:"program"` // empty means auto-detect
	Args    []string `yaml:"args"`
}

// Path returns the default config file location (~/.config/anomalybar/config.yaml).
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(configDir, "anomalybar", "config.yaml"), nil
}

// Load reads configuration from the default location.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with defaults applied and no sources.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// SourceFor builds a source from a URL or file path given on the command line.
func SourceFor(location string) SourceConfig {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return SourceConfig{Name: "cli", Type: "http", URL: location}
	}
	return SourceConfig{Name: "cli", Type: "file", Path: expandPath(location)}
}

// applyDefaults sets default values for unspecified config options.
func (c *Config) applyDefaults() {
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 15 * time.Minute
	}
	c.Sync.Output = expandPath(c.Sync.Output)
	if c.Filters.Mode == "" {
		c.Filters.Mode = "or"
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.Type == "" {
			if s.Path != "" {
				s.Type = "file"
			} else {
				s.Type = "http"
			}
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("source-%d", i+1)
		}
		s.Path = expandPath(s.Path)
	}
	if c.UI.Countdown == "" {
		c.UI.Countdown = "coarse"
	}
	if c.UI.Backend == "" {
		c.UI.Backend = "auto"
	}
	if c.UI.Imminent == 0 {
		c.UI.Imminent = 15 * time.Minute
	}
	if c.Notifications.Before == nil {
		c.Notifications.Before = []time.Duration{24 * time.Hour, time.Hour, 15 * time.Minute}
	}
}

// Validate checks the configuration for errors that defaults cannot fix.
func (c *Config) Validate() error {
	var errs []error
	for i, s := range c.Sources {
		switch s.Type {
		case "http":
			if s.URL == "" {
				errs = append(errs, fmt.Errorf("source %d (%s): url is required", i, s.Name))
			}
		case "file":
			if s.Path == "" {
				errs = append(errs, fmt.Errorf("source %d (%s): path is required", i, s.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("source %d (%s): unknown type %q", i, s.Name, s.Type))
		}
	}
	switch c.UI.Backend {
	case "auto", "gtk", "menu":
	default:
		errs = append(errs, fmt.Errorf("ui.backend: unknown backend %q", c.UI.Backend))
	}
	if c.UI.Countdown != "coarse" && c.UI.Countdown != "full" {
		errs = append(errs, fmt.Errorf("ui.countdown: unknown style %q", c.UI.Countdown))
	}
	if _, err := c.UI.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Filters.Mode != "or" && c.Filters.Mode != "and" {
		errs = append(errs, fmt.Errorf("filters.mode: unknown mode %q", c.Filters.Mode))
	}
	return errors.Join(errs...)
}

// Location returns the viewer's timezone.
func (u *UIConfig) Location() (*time.Location, error) {
	if u.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ui.timezone: %w", err)
	}
	return loc, nil
}

// GetPassword returns the password for a source, executing password_cmd if needed.
func (s *SourceConfig) GetPassword() (string, error) {
	if s.Password != "" {
		return s.Password, nil
	}
	if s.PasswordCmd == "" {
		return "", nil
	}

	cmd := exec.Command("sh", "-c", s.PasswordCmd)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("execute password_cmd: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// parseDuration parses a duration string, extending time.ParseDuration with
// day ("d") and week ("w") suffixes. Negative durations are rejected.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var unit time.Duration
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	}

	if unit != 0 {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		if n < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(n) * unit, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// UnmarshalYAML implements custom unmarshaling for duration fields.
func (c *SyncConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
		Schedule string `yaml:"schedule"`
		Output   string `yaml:"output"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	d, err := parseDuration(raw.Interval)
	if err != nil {
		return fmt.Errorf("parse interval: %w", err)
	}
	c.Interval = d
	c.Schedule = strings.TrimSpace(raw.Schedule)
	c.Output = raw.Output
	return nil
}

// UnmarshalYAML implements custom unmarshaling for notification config.
func (c *NotificationConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Enabled bool     `yaml:"enabled"`
		Before  []string `yaml:"before"`
		OnStart *bool    `yaml:"on_start"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.Enabled = raw.Enabled
	c.OnStart = raw.OnStart == nil || *raw.OnStart
	for _, s := range raw.Before {
		d, err := parseDuration(s)
		if err != nil {
			return fmt.Errorf("parse notification before duration %q: %w", s, err)
		}
		c.Before = append(c.Before, d)
	}
	return nil
}

// UnmarshalYAML implements custom unmarshaling for UI config.
func (c *UIConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Backend   string     `yaml:"backend"`
		Timezone  string     `yaml:"timezone"`
		Countdown string     `yaml:"countdown"`
		Imminent  string     `yaml:"imminent"`
		Menu      MenuConfig `yaml:"menu"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	d, err := parseDuration(raw.Imminent)
	if err != nil {
		return fmt.Errorf("parse imminent: %w", err)
	}
	c.Imminent = d
	c.Backend = strings.ToLower(strings.TrimSpace(raw.Backend))
	c.Timezone = strings.TrimSpace(raw.Timezone)
	c.Countdown = strings.ToLower(strings.TrimSpace(raw.Countdown))
	c.Menu = raw.Menu
	return nil
}
