package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"hbstatus/internal/config"
	"hbstatus/internal/hubapi"
	"hbstatus/internal/notifystate"
)

// CheckHub verifies that the Homebridge UI answers and accepts the configured
// credentials. It makes a single attempt bounded by hub.request_timeout.
func CheckHub(ctx context.Context, cfg *config.Config) Result {
	const name = "Homebridge UI"

	base := strings.TrimSpace(cfg.Hub.BaseURL)
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	client := hubapi.NewFromConfig(cfg, nil)
	if err := client.Authenticate(ctx); err != nil {
		return Result{Name: name, Detail: summarizeHubError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (authenticated)", client.BaseURL())}
}

// CheckNotifications reports how status changes will be delivered.
func CheckNotifications(cfg *config.Config) Result {
	const name = "Notifications"

	if !cfg.Notifications.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "no ntfy topic, changes are only logged"}
	}
	parsed, err := url.Parse(topic)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Result{Name: name, Detail: fmt.Sprintf("invalid ntfy topic %q", topic)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("ntfy via %s", parsed.Host)}
}

// CheckStateFile inspects the notification state file without migrating it.
func CheckStateFile(path string) Result {
	const name = "State file"

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}

	var doc struct {
		JSONVersion *float64 `json:"jsonVersion"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (unreadable, will be reset on next run)", path)}
	}
	if doc.JSONVersion == nil || int(*doc.JSONVersion) < notifystate.CurrentVersion {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (outdated, will be migrated on next run)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (version %d)", path, int(*doc.JSONVersion))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeHubError produces a human-readable summary for hub check failures.
func summarizeHubError(err error) string {
	if errors.Is(err, hubapi.ErrCredentials) {
		return "credentials rejected (check hub.username and hub.password)"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "not reachable (request timed out)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "not reachable (request timed out)"
	}
	return err.Error()
}
