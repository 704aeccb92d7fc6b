package monitor_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"hbstatus/internal/hubapi"
	"hbstatus/internal/monitor"
	"hbstatus/internal/notifications"
	"hbstatus/internal/signals"
	"hbstatus/internal/testsupport"
)

type stubHub struct {
	authErr   error
	set       signals.Set
	snapshots int
	runtime   []bool
}

func (s *stubHub) Authenticate(context.Context) error { return s.authErr }

func (s *stubHub) Snapshot(_ context.Context, includeRuntime bool) hubapi.Snapshot {
	s.snapshots++
	s.runtime = append(s.runtime, includeRuntime)
	return hubapi.Snapshot{TakenAt: time.Now().UTC(), Signals: s.set}
}

func (s *stubHub) Telemetry(context.Context) hubapi.Telemetry {
	return hubapi.Telemetry{Uptime: &hubapi.Uptime{SystemSeconds: 10}}
}

func allGood() signals.Set {
	return signals.NewSet(signals.True, signals.True, signals.True, signals.True)
}

func fixedClock(at time.Time) monitor.Option {
	return monitor.WithClock(func() time.Time { return at })
}

func TestCheckServiceStoppedNotifiesOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	hub := &stubHub{set: allGood().With(signals.ServiceRunning, signals.False)}
	rec := &notifications.Recorder{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	m, err := monitor.New(context.Background(), cfg, nil,
		monitor.WithHub(hub), monitor.WithDispatcher(rec), fixedClock(now),
		monitor.WithRunIDSource(func() string { return "run-1" }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	report, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.Reachable || report.RunID != "run-1" {
		t.Fatalf("unexpected report %+v", report)
	}
	reqs := rec.Requests()
	if len(reqs) != 1 || reqs[0].Body != cfg.Notifications.Messages.ServiceNotRunning {
		t.Fatalf("expected one service-not-running request, got %+v", reqs)
	}
	if reqs[0].Title != cfg.Notifications.Title || reqs[0].ActionTarget != cfg.Hub.BaseURL {
		t.Fatalf("envelope not applied: %+v", reqs[0])
	}

	state, err := m.Store().Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.HBRunning.Status || state.HBRunning.LastNotified == nil || !state.HBRunning.LastNotified.Equal(now) {
		t.Fatalf("unexpected hbRunning entry %+v", state.HBRunning)
	}

	entries, err := m.Journal().Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].RunID != "run-1" || !entries[0].Notified || entries[0].Dispatcher != "recorder" {
		t.Fatalf("unexpected journal %+v", entries)
	}

	// A second run inside the cooldown stays quiet.
	report, err = m.Check(context.Background())
	if err != nil {
		t.Fatalf("second Check: %v", err)
	}
	if len(rec.Requests()) != 1 {
		t.Fatalf("cooldown not honoured, got %d requests", len(rec.Requests()))
	}
	if report.Decision().Changed {
		t.Fatal("second run should not change state")
	}
}

func TestCheckUnreachableHubLeavesStateAlone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	hub := &stubHub{authErr: hubapi.ErrUnavailable}
	rec := &notifications.Recorder{}

	m, err := monitor.New(context.Background(), cfg, nil, monitor.WithHub(hub), monitor.WithDispatcher(rec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	report, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Reachable || !errors.Is(report.HubErr, hubapi.ErrUnavailable) {
		t.Fatalf("expected unreachable report, got %+v", report)
	}
	if hub.snapshots != 0 || len(rec.Requests()) != 0 {
		t.Fatal("nothing should be read or sent when the hub is unreachable")
	}
	if _, err := os.Stat(cfg.StatePath()); !os.IsNotExist(err) {
		t.Fatalf("state file should not exist, stat err = %v", err)
	}
}

func TestCheckRuntimeSignalFollowsDisplaySetting(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		opts := []testsupport.ConfigOption{}
		if enabled {
			opts = append(opts, testsupport.WithRuntimeSignal())
		}
		cfg := testsupport.NewConfig(t, opts...)
		hub := &stubHub{set: allGood().With(signals.RuntimeUpToDate, signals.False)}
		rec := &notifications.Recorder{}

		m, err := monitor.New(context.Background(), cfg, nil, monitor.WithHub(hub), monitor.WithDispatcher(rec))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := m.Check(context.Background()); err != nil {
			t.Fatalf("Check: %v", err)
		}
		_ = m.Close()

		if hub.runtime[0] != enabled {
			t.Fatalf("includeRuntime = %v, want %v", hub.runtime[0], enabled)
		}
		want := 0
		if enabled {
			want = 1
		}
		if got := len(rec.Requests()); got != want {
			t.Fatalf("runtime enabled=%v: got %d requests, want %d", enabled, got, want)
		}
	}
}

func TestCheckPrunesHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.History.RetentionDays = 1
	hub := &stubHub{set: allGood().With(signals.PluginsUpToDate, signals.False)}
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start

	m, err := monitor.New(context.Background(), cfg, nil,
		monitor.WithHub(hub), monitor.WithDispatcher(&notifications.Recorder{}),
		monitor.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	if _, err := m.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	now = start.Add(72 * time.Hour)
	hub.set = allGood()
	report, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Pruned != 1 {
		t.Fatalf("expected the old transition to be pruned, got %d", report.Pruned)
	}
}

func TestCheckDisabledNotificationsSkipsState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.Enabled = false
	hub := &stubHub{set: signals.Set{}}
	rec := &notifications.Recorder{}

	m, err := monitor.New(context.Background(), cfg, nil, monitor.WithHub(hub), monitor.WithDispatcher(rec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	report, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.Outcome.Skipped || len(rec.Requests()) != 0 {
		t.Fatalf("expected skipped outcome, got %+v", report.Outcome)
	}
	if _, err := os.Stat(cfg.StatePath()); !os.IsNotExist(err) {
		t.Fatal("state file should not be created when notifications are disabled")
	}
}

func TestObserveReadsTelemetryOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/noauth":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "t"})
		case "/api/status/homebridge":
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "up"})
		case "/api/status/homebridge-version":
			_ = json.NewEncoder(w).Encode(map[string]any{"updateAvailable": false})
		case "/api/plugins":
			_, _ = w.Write([]byte("[]"))
		case "/api/status/uptime":
			_ = json.NewEncoder(w).Encode(map[string]any{"time": map[string]any{"uptime": 120}, "processUptime": 60})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithHubURL(srv.URL))
	m, err := monitor.New(context.Background(), cfg, nil, monitor.WithDispatcher(notifications.Noop()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	_, report := m.Observe(context.Background(), true)
	if !report.Reachable {
		t.Fatalf("hub should be reachable: %v", report.HubErr)
	}
	want := signals.NewSet(signals.True, signals.True, signals.True, signals.Unknown)
	if report.Snapshot.Signals != want {
		t.Fatalf("signals = %+v", report.Snapshot.Signals)
	}
	if report.Telemetry == nil || report.Telemetry.Uptime == nil || report.Telemetry.CPU != nil {
		t.Fatalf("unexpected telemetry %+v", report.Telemetry)
	}
	if _, err := os.Stat(cfg.StatePath()); !os.IsNotExist(err) {
		t.Fatal("observing must not touch notification state")
	}
}
