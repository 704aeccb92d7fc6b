package config

const (
	defaultConfigPath         = "~/.config/hbstatus/config.toml"
	defaultStateDir           = "~/.local/share/hbstatus"
	defaultStateFile          = "notificationState.json"
	defaultLogDir             = "~/.local/share/hbstatus/logs"
	historyFileName           = "history.db"
	deprecatedPrefix          = "DEPRECATED_"
	defaultHubRequestTimeout  = 10
	defaultNotifyTimeout      = 10
	defaultNotifyIntervalDays = 1
	defaultNotifyTitle        = "Homebridge Status changed:"
	defaultNotifyActionText   = "Show me!"
	defaultNotifySound        = "event"
	defaultTemperatureUnit    = "celsius"
	defaultDecimalChar        = ","
	defaultDateFormat         = "02.01.2006 15:04:05"
	defaultHistoryRetention   = 90
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultMsgServiceStopped  = "Your Homebridge instance stopped ⁉"
	defaultMsgServiceOutdated = "Update available for Homebridge ⁉"
	defaultMsgPluginsOutdated = "Update available for one of your Plugins ⁉"
	defaultMsgRuntimeOutdated = "Update available for Node.js ⁉"
	defaultMsgServiceOnline   = "Your Homebridge instance is back online ⁉"
	defaultMsgServiceCurrent  = "Homebridge is now up to date ⁉"
	defaultMsgPluginsCurrent  = "Plugins are now up to date ⁉"
	defaultMsgRuntimeCurrent  = "Node.js is now up to date ⁉"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Hub: Hub{
			RequestTimeout: defaultHubRequestTimeout,
		},
		Notifications: Notifications{
			Enabled:             true,
			IntervalDays:        defaultNotifyIntervalDays,
			DisableBackToNormal: true,
			RequestTimeout:      defaultNotifyTimeout,
			Title:               defaultNotifyTitle,
			ActionText:          defaultNotifyActionText,
			Sound:               defaultNotifySound,
			Messages:            defaultMessages(),
		},
		Display: Display{
			TemperatureUnit: defaultTemperatureUnit,
			DecimalChar:     defaultDecimalChar,
			DateFormat:      defaultDateFormat,
		},
		Paths: Paths{
			StateDir:  defaultStateDir,
			StateFile: defaultStateFile,
			LogDir:    defaultLogDir,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetention,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultMessages() Messages {
	return Messages{
		ServiceNotRunning: defaultMsgServiceStopped,
		ServiceOutdated:   defaultMsgServiceOutdated,
		PluginsOutdated:   defaultMsgPluginsOutdated,
		RuntimeOutdated:   defaultMsgRuntimeOutdated,
		ServiceBackOnline: defaultMsgServiceOnline,
		ServiceUpToDate:   defaultMsgServiceCurrent,
		PluginsUpToDate:   defaultMsgPluginsCurrent,
		RuntimeUpToDate:   defaultMsgRuntimeCurrent,
	}
}
