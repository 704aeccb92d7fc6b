package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Hub contains connection settings for the Homebridge UI management API.
type Hub struct {
	BaseURL        string   `toml:"base_url"`
	Username       string   `toml:"username"`
	Password       string   `toml:"password"`
	RequestTimeout int      `toml:"request_timeout"`
	IgnoreUpdates  []string `toml:"ignore_updates"`
}

// Messages holds the notification body for every signal and direction.
type Messages struct {
	ServiceNotRunning string `toml:"service_not_running"`
	ServiceOutdated   string `toml:"service_outdated"`
	PluginsOutdated   string `toml:"plugins_outdated"`
	RuntimeOutdated   string `toml:"runtime_outdated"`
	ServiceBackOnline string `toml:"service_back_online"`
	ServiceUpToDate   string `toml:"service_up_to_date"`
	PluginsUpToDate   string `toml:"plugins_up_to_date"`
	RuntimeUpToDate   string `toml:"runtime_up_to_date"`
}

// Notifications contains status-change notification settings.
type Notifications struct {
	Enabled bool `toml:"enabled"`
	// IntervalDays is the minimum time before re-notifying a signal that stays
	// degraded. Fractions are allowed.
	IntervalDays        float64  `toml:"interval_days"`
	DisableBackToNormal bool     `toml:"disable_back_to_normal"`
	NtfyTopic           string   `toml:"ntfy_topic"`
	RequestTimeout      int      `toml:"request_timeout"`
	Title               string   `toml:"title"`
	ActionText          string   `toml:"action_text"`
	ActionURL           string   `toml:"action_url"` // Default: hub.base_url
	Sound               string   `toml:"sound"`
	Messages            Messages `toml:"messages"`
}

// Display contains presentation settings for the status panel.
type Display struct {
	// ShowNodeJSStatus also gates the runtime-up-to-date signal for notifications.
	ShowNodeJSStatus bool   `toml:"show_nodejs_status"`
	TemperatureUnit  string `toml:"temperature_unit"`
	DecimalChar      string `toml:"decimal_char"`
	DateFormat       string `toml:"date_format"`
}

// Paths contains file and directory locations.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	StateFile string `toml:"state_file"`
	LogDir    string `toml:"log_dir"`
}

// History contains configuration for the notification journal.
type History struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for hbstatus.
//
// Configuration sections by subsystem:
//   - Hub: Homebridge UI URL, credentials, timeouts and ignored updates
//   - Notifications: cadence, wording and the ntfy transport
//   - Display: status panel preferences and the runtime signal gate
//   - Paths: state file, history database and log locations
//   - History: notification journal retention
//   - Logging: log format and level
type Config struct {
	Hub           Hub           `toml:"hub"`
	Notifications Notifications `toml:"notifications"`
	Display       Display       `toml:"display"`
	Paths         Paths         `toml:"paths"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hbstatus.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StatePath returns the absolute path of the notification state file.
func (c *Config) StatePath() string {
	return filepath.Join(c.Paths.StateDir, c.Paths.StateFile)
}

// HistoryPath returns the absolute path of the notification journal database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, historyFileName)
}

// LogPath returns the absolute path of the log file, or "" when file logging is off.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "hbstatus.log")
}

// HubTimeout returns the per-request timeout for hub API calls.
func (c *Config) HubTimeout() time.Duration {
	return time.Duration(c.Hub.RequestTimeout) * time.Second
}

// NotifyInterval returns the re-notification cooldown as a duration.
func (c *Config) NotifyInterval() time.Duration {
	return time.Duration(c.Notifications.IntervalDays * float64(24*time.Hour))
}

// ActionTarget returns the URL opened from a notification's action button.
func (c *Config) ActionTarget() string {
	if target := strings.TrimSpace(c.Notifications.ActionURL); target != "" {
		return target
	}
	return c.Hub.BaseURL
}

// IgnoresUpdate reports whether name is listed in hub.ignore_updates.
func (c *Config) IgnoresUpdate(name string) bool {
	for _, entry := range c.Hub.IgnoreUpdates {
		if entry == name {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
