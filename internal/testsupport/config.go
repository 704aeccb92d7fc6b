package testsupport

import (
	"path/filepath"
	"testing"

	"hbstatus/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Hub.BaseURL = "http://127.0.0.1:8581"
	cfgVal.Hub.Username = "admin"
	cfgVal.Hub.Password = "admin"
	cfgVal.Hub.RequestTimeout = 2
	cfgVal.Notifications.RequestTimeout = 2
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = ""
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithHubURL points the test config at a fake hub, usually an httptest server.
func WithHubURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Hub.BaseURL = url
	}
}

// WithNtfyTopic points the test config at a fake ntfy topic.
func WithNtfyTopic(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = url
	}
}

// WithRuntimeSignal enables the Node.js up-to-date signal.
func WithRuntimeSignal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Display.ShowNodeJSStatus = true
	}
}

// WithRecoveryNotifications enables "back to normal" notifications.
func WithRecoveryNotifications() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.DisableBackToNormal = false
	}
}

// WithHistoryDisabled turns the notification journal off.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
