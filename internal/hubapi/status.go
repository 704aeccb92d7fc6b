package hubapi

import (
	"context"
	"time"

	"hbstatus/internal/logging"
	"hbstatus/internal/signals"
)

// VersionInfo describes an installed component and whether an update exists.
type VersionInfo struct {
	Name             string `json:"name"`
	InstalledVersion string `json:"installedVersion"`
	LatestVersion    string `json:"latestVersion"`
	UpdateAvailable  bool   `json:"updateAvailable"`
	// Ignored is true when the check was skipped through the ignore list.
	Ignored bool `json:"ignored,omitempty"`
}

// Plugin is one installed Homebridge plugin.
type Plugin struct {
	Name             string `json:"name"`
	InstalledVersion string `json:"installedVersion"`
	LatestVersion    string `json:"latestVersion"`
	UpdateAvailable  bool   `json:"updateAvailable"`
	Ignored          bool   `json:"ignored,omitempty"`
}

// Snapshot is everything read from the hub for the four health signals.
// Nil fields were not available.
type Snapshot struct {
	TakenAt        time.Time    `json:"takenAt"`
	ServiceStatus  string       `json:"serviceStatus,omitempty"`
	ServiceVersion *VersionInfo `json:"serviceVersion,omitempty"`
	Plugins        []Plugin     `json:"plugins,omitempty"`
	Runtime        *VersionInfo `json:"runtime,omitempty"`
	Signals        signals.Set  `json:"-"`
}

// OutdatedPlugins returns the plugins with an update that is not ignored.
func (s Snapshot) OutdatedPlugins() []Plugin {
	var out []Plugin
	for _, p := range s.Plugins {
		if p.UpdateAvailable && !p.Ignored {
			out = append(out, p)
		}
	}
	return out
}

type statusResponse struct {
	Status string `json:"status"`
}

type runtimeResponse struct {
	CurrentVersion  string `json:"currentVersion"`
	LatestVersion   string `json:"latestVersion"`
	UpdateAvailable bool   `json:"updateAvailable"`
}

// Snapshot reads the service status, versions, and plugins sequentially.
// Node.js is only queried when includeRuntime is set.
func (c *Client) Snapshot(ctx context.Context, includeRuntime bool) Snapshot {
	snap := Snapshot{TakenAt: time.Now().UTC()}
	var set signals.Set

	running, status := c.serviceRunning(ctx)
	snap.ServiceStatus = status
	set = set.With(signals.ServiceRunning, running)

	if info := c.serviceVersion(ctx); info != nil {
		snap.ServiceVersion = info
		set = set.With(signals.ServiceUpToDate, signals.FromBool(!info.UpdateAvailable))
	}

	if plugins, ok := c.plugins(ctx); ok {
		snap.Plugins = plugins
		outdated := false
		for _, p := range plugins {
			if p.UpdateAvailable && !p.Ignored {
				outdated = true
				break
			}
		}
		set = set.With(signals.PluginsUpToDate, signals.FromBool(!outdated))
	}

	if includeRuntime {
		if info := c.runtimeVersion(ctx); info != nil {
			snap.Runtime = info
			set = set.With(signals.RuntimeUpToDate, signals.FromBool(!info.UpdateAvailable))
		}
	}

	snap.Signals = set
	return snap
}

// serviceRunning maps ok/up to True, pending and failures to Unknown, anything else to False.
func (c *Client) serviceRunning(ctx context.Context) (signals.Ternary, string) {
	var resp statusResponse
	if err := c.getJSON(ctx, statusPath, &resp); err != nil {
		c.readFailed(statusPath, err)
		return signals.Unknown, ""
	}
	switch resp.Status {
	case "ok", "up":
		return signals.True, resp.Status
	case "pending":
		return signals.Unknown, resp.Status
	default:
		return signals.False, resp.Status
	}
}

func (c *Client) serviceVersion(ctx context.Context) *VersionInfo {
	if c.ignores(IgnoreServiceUpdates) {
		c.logger.Debug("service update check ignored by configuration")
		return &VersionInfo{Name: "homebridge", Ignored: true}
	}
	var info VersionInfo
	if err := c.getJSON(ctx, serviceVersionPath, &info); err != nil {
		c.readFailed(serviceVersionPath, err)
		return nil
	}
	return &info
}

func (c *Client) plugins(ctx context.Context) ([]Plugin, bool) {
	var plugins []Plugin
	if err := c.getJSON(ctx, pluginsPath, &plugins); err != nil {
		c.readFailed(pluginsPath, err)
		return nil, false
	}
	for i := range plugins {
		if c.ignores(plugins[i].Name) {
			plugins[i].Ignored = true
		}
	}
	if plugins == nil {
		plugins = []Plugin{}
	}
	return plugins, true
}

func (c *Client) runtimeVersion(ctx context.Context) *VersionInfo {
	if c.ignores(IgnoreRuntimeUpdates) {
		c.logger.Debug("node.js update check ignored by configuration")
		return &VersionInfo{Name: "node.js", Ignored: true}
	}
	var resp runtimeResponse
	if err := c.getJSON(ctx, runtimePath, &resp); err != nil {
		c.readFailed(runtimePath, err)
		return nil
	}
	return &VersionInfo{
		Name:             "node.js",
		InstalledVersion: resp.CurrentVersion,
		LatestVersion:    resp.LatestVersion,
		UpdateAvailable:  resp.UpdateAvailable,
	}
}

func (c *Client) readFailed(path string, err error) {
	c.logger.Debug("hub read failed, treating as unknown",
		logging.String("path", path),
		logging.Error(err))
}
