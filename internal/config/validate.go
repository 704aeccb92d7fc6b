package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Sounds lists the notification sounds accepted by notifications.sound.
// An empty value selects a silent notification.
var Sounds = []string{
	"default",
	"accept",
	"alert",
	"complete",
	"event",
	"failure",
	"piano_error",
	"piano_success",
	"popup",
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHub(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateHub() error {
	if c.Hub.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("hub.base_url is required. Set HB_URL env var or edit %s (create with 'hbstatus config init')", defaultPath)
	}
	if err := validateHTTPURL("hub.base_url", c.Hub.BaseURL); err != nil {
		return err
	}
	if c.Hub.RequestTimeout < 0 {
		return errors.New("hub.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	if n.IntervalDays < 0 {
		return errors.New("notifications.interval_days must be >= 0")
	}
	if n.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if n.NtfyTopic != "" {
		if err := validateHTTPURL("notifications.ntfy_topic", n.NtfyTopic); err != nil {
			return err
		}
	}
	if n.ActionURL != "" {
		if err := validateHTTPURL("notifications.action_url", n.ActionURL); err != nil {
			return err
		}
	}
	if n.Sound != "" && !knownSound(n.Sound) {
		return fmt.Errorf("notifications.sound must be empty or one of %s", strings.Join(Sounds, ", "))
	}
	return nil
}

func (c *Config) validateDisplay() error {
	switch c.Display.TemperatureUnit {
	case "celsius", "fahrenheit":
	default:
		return errors.New("display.temperature_unit must be 'celsius' or 'fahrenheit'")
	}
	if !singleRune(c.Display.DecimalChar) {
		return errors.New("display.decimal_char must be a single character")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StateFile != filepath.Base(c.Paths.StateFile) || c.Paths.StateFile == "." || c.Paths.StateFile == ".." {
		return errors.New("paths.state_file must be a file name without directories")
	}
	if strings.HasPrefix(c.Paths.StateFile, deprecatedPrefix) {
		return fmt.Errorf("paths.state_file must not start with %q", deprecatedPrefix)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not supported (use debug, info, warn or error)", c.Logging.Level)
	}
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", key)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}

func knownSound(value string) bool {
	for _, sound := range Sounds {
		if sound == value {
			return true
		}
	}
	return false
}
