package config

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeHub()
	c.normalizeNotifications()
	c.normalizeDisplay()
	c.normalizeHistory()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.StateFile = strings.TrimSpace(c.Paths.StateFile)
	if c.Paths.StateFile == "" {
		c.Paths.StateFile = defaultStateFile
	}
	return nil
}

func (c *Config) normalizeHub() {
	if strings.TrimSpace(c.Hub.BaseURL) == "" {
		if value, ok := os.LookupEnv("HB_URL"); ok {
			c.Hub.BaseURL = value
		}
	}
	c.Hub.BaseURL = strings.TrimRight(strings.TrimSpace(c.Hub.BaseURL), "/")
	if c.Hub.Username == "" {
		if value, ok := os.LookupEnv("HB_USERNAME"); ok {
			c.Hub.Username = value
		}
	}
	if c.Hub.Password == "" {
		if value, ok := os.LookupEnv("HB_PASSWORD"); ok {
			c.Hub.Password = value
		}
	}
	c.Hub.Username = strings.TrimSpace(c.Hub.Username)
	if c.Hub.RequestTimeout == 0 {
		c.Hub.RequestTimeout = defaultHubRequestTimeout
	}
	ignored := make([]string, 0, len(c.Hub.IgnoreUpdates))
	for _, entry := range c.Hub.IgnoreUpdates {
		if entry = strings.TrimSpace(entry); entry != "" {
			ignored = append(ignored, entry)
		}
	}
	c.Hub.IgnoreUpdates = ignored
}

func (c *Config) normalizeNotifications() {
	n := &c.Notifications
	if strings.TrimSpace(n.NtfyTopic) == "" {
		if value, ok := os.LookupEnv("HBSTATUS_NTFY_TOPIC"); ok {
			n.NtfyTopic = value
		}
	}
	n.NtfyTopic = strings.TrimSpace(n.NtfyTopic)
	n.ActionURL = strings.TrimSpace(n.ActionURL)
	n.Sound = strings.ToLower(strings.TrimSpace(n.Sound))
	if n.RequestTimeout == 0 {
		n.RequestTimeout = defaultNotifyTimeout
	}
	if strings.TrimSpace(n.Title) == "" {
		n.Title = defaultNotifyTitle
	}
	if strings.TrimSpace(n.ActionText) == "" {
		n.ActionText = defaultNotifyActionText
	}

	defaults := defaultMessages()
	fill := func(target *string, fallback string) {
		if strings.TrimSpace(*target) == "" {
			*target = fallback
		}
	}
	fill(&n.Messages.ServiceNotRunning, defaults.ServiceNotRunning)
	fill(&n.Messages.ServiceOutdated, defaults.ServiceOutdated)
	fill(&n.Messages.PluginsOutdated, defaults.PluginsOutdated)
	fill(&n.Messages.RuntimeOutdated, defaults.RuntimeOutdated)
	fill(&n.Messages.ServiceBackOnline, defaults.ServiceBackOnline)
	fill(&n.Messages.ServiceUpToDate, defaults.ServiceUpToDate)
	fill(&n.Messages.PluginsUpToDate, defaults.PluginsUpToDate)
	fill(&n.Messages.RuntimeUpToDate, defaults.RuntimeUpToDate)
}

func (c *Config) normalizeDisplay() {
	c.Display.TemperatureUnit = strings.ToLower(strings.TrimSpace(c.Display.TemperatureUnit))
	if c.Display.TemperatureUnit == "" {
		c.Display.TemperatureUnit = defaultTemperatureUnit
	}
	if c.Display.DecimalChar == "" {
		c.Display.DecimalChar = defaultDecimalChar
	}
	if strings.TrimSpace(c.Display.DateFormat) == "" {
		c.Display.DateFormat = defaultDateFormat
	}
}

func (c *Config) normalizeHistory() {
	if c.History.RetentionDays < 0 {
		c.History.RetentionDays = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func singleRune(value string) bool {
	return utf8.RuneCountInString(value) == 1
}
