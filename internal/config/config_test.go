package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hbstatus/internal/config"
)

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())
	t.Setenv("HB_URL", "http://homebridge.local:8581/")
	t.Setenv("HB_USERNAME", "admin")
	t.Setenv("HB_PASSWORD", "secret")
	t.Setenv("HBSTATUS_NTFY_TOPIC", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Hub.BaseURL != "http://homebridge.local:8581" {
		t.Fatalf("expected trailing slash trimmed from env url, got %q", cfg.Hub.BaseURL)
	}
	if cfg.Hub.Username != "admin" || cfg.Hub.Password != "secret" {
		t.Fatalf("expected credentials from env, got %q/%q", cfg.Hub.Username, cfg.Hub.Password)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "hbstatus")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.StatePath() != filepath.Join(wantState, "notificationState.json") {
		t.Fatalf("unexpected state path: %q", cfg.StatePath())
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if !cfg.Notifications.Enabled || !cfg.Notifications.DisableBackToNormal {
		t.Fatal("expected notifications enabled and recovery notifications disabled by default")
	}
	if cfg.Notifications.IntervalDays != 1 {
		t.Fatalf("expected one day interval, got %v", cfg.Notifications.IntervalDays)
	}
	if cfg.Display.ShowNodeJSStatus {
		t.Fatal("expected Node.js status hidden by default")
	}
	if cfg.Display.DecimalChar != "," {
		t.Fatalf("unexpected decimal char %q", cfg.Display.DecimalChar)
	}
	if cfg.ActionTarget() != cfg.Hub.BaseURL {
		t.Fatalf("expected action target to fall back to hub url, got %q", cfg.ActionTarget())
	}
	if cfg.Notifications.Messages.ServiceNotRunning != "Your Homebridge instance stopped ⁉" {
		t.Fatalf("unexpected default message %q", cfg.Notifications.Messages.ServiceNotRunning)
	}
}

func TestLoadFailsWithoutHubURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("HB_URL", "")

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error without hub.base_url")
	}
	if !strings.Contains(err.Error(), "hub.base_url is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("HB_URL", "http://ignored.example")
	t.Setenv("HBSTATUS_NTFY_TOPIC", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := struct {
		Hub struct {
			BaseURL       string   `toml:"base_url"`
			IgnoreUpdates []string `toml:"ignore_updates"`
		} `toml:"hub"`
		Notifications struct {
			IntervalDays float64 `toml:"interval_days"`
			NtfyTopic    string  `toml:"ntfy_topic"`
			Sound        string  `toml:"sound"`
			Messages     struct {
				ServiceNotRunning string `toml:"service_not_running"`
			} `toml:"messages"`
		} `toml:"notifications"`
		Paths struct {
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
		Display struct {
			ShowNodeJSStatus bool   `toml:"show_nodejs_status"`
			TemperatureUnit  string `toml:"temperature_unit"`
		} `toml:"display"`
	}{}
	payload.Hub.BaseURL = "https://hb.example:8581"
	payload.Hub.IgnoreUpdates = []string{" HOMEBRIDGE_UTD ", "", "homebridge-hue"}
	payload.Notifications.IntervalDays = 0.5
	payload.Notifications.NtfyTopic = "https://ntfy.example/hb"
	payload.Notifications.Sound = "Failure"
	payload.Notifications.Messages.ServiceNotRunning = "down!"
	payload.Paths.StateDir = "~/hb-state"
	payload.Display.ShowNodeJSStatus = true
	payload.Display.TemperatureUnit = "FAHRENHEIT"

	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Hub.BaseURL != "https://hb.example:8581" {
		t.Fatalf("file value should win over env, got %q", cfg.Hub.BaseURL)
	}
	if !cfg.IgnoresUpdate("HOMEBRIDGE_UTD") || !cfg.IgnoresUpdate("homebridge-hue") {
		t.Fatalf("unexpected ignore list %v", cfg.Hub.IgnoreUpdates)
	}
	if len(cfg.Hub.IgnoreUpdates) != 2 {
		t.Fatalf("expected blank ignore entries dropped, got %v", cfg.Hub.IgnoreUpdates)
	}
	if cfg.NotifyInterval().Hours() != 12 {
		t.Fatalf("expected 12h interval, got %v", cfg.NotifyInterval())
	}
	if cfg.Notifications.Sound != "failure" {
		t.Fatalf("expected sound lowercased, got %q", cfg.Notifications.Sound)
	}
	if cfg.Notifications.Messages.ServiceNotRunning != "down!" {
		t.Fatalf("unexpected custom message %q", cfg.Notifications.Messages.ServiceNotRunning)
	}
	if cfg.Notifications.Messages.PluginsOutdated == "" {
		t.Fatal("expected unset messages to keep defaults")
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "hb-state") {
		t.Fatalf("unexpected state dir %q", cfg.Paths.StateDir)
	}
	if cfg.Display.TemperatureUnit != "fahrenheit" {
		t.Fatalf("unexpected temperature unit %q", cfg.Display.TemperatureUnit)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"hub scheme", func(c *config.Config) { c.Hub.BaseURL = "ftp://hb" }, "hub.base_url must use http or https"},
		{"negative interval", func(c *config.Config) { c.Notifications.IntervalDays = -1 }, "notifications.interval_days"},
		{"unknown sound", func(c *config.Config) { c.Notifications.Sound = "trumpet" }, "notifications.sound"},
		{"temperature unit", func(c *config.Config) { c.Display.TemperatureUnit = "kelvin" }, "display.temperature_unit"},
		{"decimal char", func(c *config.Config) { c.Display.DecimalChar = ".." }, "display.decimal_char"},
		{"state file dir", func(c *config.Config) { c.Paths.StateFile = "sub/state.json" }, "paths.state_file"},
		{"state file prefix", func(c *config.Config) { c.Paths.StateFile = "DEPRECATED_state.json" }, "paths.state_file"},
		{"log level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Hub.BaseURL = "http://hb.local"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Hub.BaseURL != "http://homebridge.local:8581" {
		t.Fatalf("unexpected sample hub url %q", cfg.Hub.BaseURL)
	}
	if cfg.Notifications.Sound != "event" {
		t.Fatalf("unexpected sample sound %q", cfg.Notifications.Sound)
	}
}

func TestEnsureDirectoriesCreatesStateAndLogDirs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
