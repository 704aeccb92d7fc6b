package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hbstatus/internal/config"
	"hbstatus/internal/testsupport"
)

type fakeHub struct {
	mu     sync.Mutex
	status string
	server *httptest.Server
}

func (h *fakeHub) setStatus(status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = status
}

func (h *fakeHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	status := h.status
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	var body any
	switch r.URL.Path {
	case "/api/auth/noauth":
		body = map[string]string{"access_token": "test-token"}
	case "/api/status/homebridge":
		body = map[string]string{"status": status}
	case "/api/status/homebridge-version":
		body = map[string]any{"name": "homebridge", "installedVersion": "1.8.4", "latestVersion": "1.8.4", "updateAvailable": false}
	case "/api/plugins":
		body = []map[string]any{{"name": "homebridge-hue", "installedVersion": "0.13.0", "updateAvailable": false}}
	case "/api/status/cpu":
		body = map[string]any{"currentLoad": 7.25, "cpuLoadHistory": []float64{3, 5, 9}, "cpuTemperature": map[string]any{"main": 51.0}}
	case "/api/status/ram":
		body = map[string]any{"mem": map[string]any{"total": 4000, "available": 1000}, "memoryUsageHistory": []float64{70, 75}}
	case "/api/status/uptime":
		body = map[string]any{"time": map[string]any{"uptime": 200000}, "processUptime": 7200}
	default:
		http.NotFound(w, r)
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

type ntfyMessage struct {
	Title string
	Body  string
}

type fakeNtfy struct {
	mu       sync.Mutex
	messages []ntfyMessage
	server   *httptest.Server
}

func (n *fakeNtfy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	n.mu.Lock()
	n.messages = append(n.messages, ntfyMessage{Title: r.Header.Get("Title"), Body: string(data)})
	n.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (n *fakeNtfy) received() []ntfyMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ntfyMessage, len(n.messages))
	copy(out, n.messages)
	return out
}

type cliTestEnv struct {
	cfg        *config.Config
	hub        *fakeHub
	ntfy       *fakeNtfy
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	hub := &fakeHub{status: "ok"}
	hub.server = httptest.NewServer(hub)
	t.Cleanup(hub.server.Close)

	ntfy := &fakeNtfy{}
	ntfy.server = httptest.NewServer(ntfy)
	t.Cleanup(ntfy.server.Close)

	opts = append([]testsupport.ConfigOption{
		testsupport.WithHubURL(hub.server.URL),
		testsupport.WithNtfyTopic(ntfy.server.URL + "/homebridge"),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)

	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"HB_URL", "HB_USERNAME", "HB_PASSWORD", "HBSTATUS_NTFY_TOPIC"} {
		t.Setenv(key, "")
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		hub:        hub,
		ntfy:       ntfy,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
