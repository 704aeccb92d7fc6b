package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hbstatus/internal/alerts"
	"hbstatus/internal/config"
	"hbstatus/internal/history"
	"hbstatus/internal/hubapi"
	"hbstatus/internal/logging"
	"hbstatus/internal/notifications"
	"hbstatus/internal/notifystate"
)

// Hub is the subset of the hub client a Monitor reads from.
type Hub interface {
	Authenticate(ctx context.Context) error
	Snapshot(ctx context.Context, includeRuntime bool) hubapi.Snapshot
	Telemetry(ctx context.Context) hubapi.Telemetry
}

// Report is the result of one invocation.
type Report struct {
	RunID     string
	StartedAt time.Time
	Reachable bool
	// HubErr explains why the hub was not reachable.
	HubErr    error
	Snapshot  hubapi.Snapshot
	Telemetry *hubapi.Telemetry
	Outcome   alerts.Outcome
	// Pruned counts journal rows removed by retention.
	Pruned int64
}

// Decision returns the alerts decision of the run.
func (r Report) Decision() alerts.Decision {
	return r.Outcome.Decision
}

// Monitor wires the hub client, state store, dispatcher, and journal.
type Monitor struct {
	cfg        *config.Config
	hub        Hub
	store      *notifystate.FileStore
	dispatcher notifications.Dispatcher
	journal    *history.Store
	logger     *slog.Logger
	now        func() time.Time
	newRunID   func() string
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithHub replaces the hub client built from configuration.
func WithHub(hub Hub) Option {
	return func(m *Monitor) {
		if hub != nil {
			m.hub = hub
		}
	}
}

// WithDispatcher replaces the dispatcher built from configuration.
func WithDispatcher(d notifications.Dispatcher) Option {
	return func(m *Monitor) {
		if d != nil {
			m.dispatcher = d
		}
	}
}

// WithClock replaces time.Now for decisions and retention.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRunIDSource replaces the uuid generator.
func WithRunIDSource(next func() string) Option {
	return func(m *Monitor) {
		if next != nil {
			m.newRunID = next
		}
	}
}

// New builds a Monitor from cfg. The journal is opened when history is
// enabled; a journal that cannot be opened is logged and skipped.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Monitor, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	m := &Monitor{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "monitor"),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.hub == nil {
		m.hub = hubapi.NewFromConfig(cfg, logger)
	}
	if m.dispatcher == nil {
		m.dispatcher = notifications.NewDispatcher(cfg, logger)
	}
	m.store = notifystate.NewFileStore(cfg.StatePath(), logger)

	if cfg.History.Enabled {
		journal, err := history.Open(ctx, cfg.HistoryPath())
		if err != nil {
			logging.WarnWithContext(m.logger, "history journal unavailable", "history_open_failed",
				logging.String("path", cfg.HistoryPath()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "transitions from this run will not be journaled"))
		} else {
			m.journal = journal
		}
	}
	return m, nil
}

// Store exposes the notification state store.
func (m *Monitor) Store() *notifystate.FileStore {
	return m.store
}

// Journal returns the history store, or nil when history is disabled or unavailable.
func (m *Monitor) Journal() *history.Store {
	return m.journal
}

// Dispatcher returns the configured dispatcher.
func (m *Monitor) Dispatcher() notifications.Dispatcher {
	return m.dispatcher
}

// Close releases the journal.
func (m *Monitor) Close() error {
	if m.journal == nil {
		return nil
	}
	return m.journal.Close()
}

// Observe authenticates and reads a snapshot without evaluating notifications.
// Telemetry is read as well when withTelemetry is set.
func (m *Monitor) Observe(ctx context.Context, withTelemetry bool) (context.Context, Report) {
	report := Report{RunID: m.newRunID(), StartedAt: m.now().UTC()}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, m.logger)

	if err := m.hub.Authenticate(ctx); err != nil {
		report.HubErr = err
		hint := "check hub.base_url and that the Homebridge UI is running"
		if errors.Is(err, hubapi.ErrCredentials) {
			hint = "check hub.username and hub.password"
		}
		logging.WarnWithContext(logger, "homebridge ui not reachable", "hub_unreachable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "status not evaluated this run"))
		return ctx, report
	}
	report.Reachable = true
	report.Snapshot = m.hub.Snapshot(ctx, m.cfg.Display.ShowNodeJSStatus)
	if withTelemetry {
		telemetry := m.hub.Telemetry(ctx)
		report.Telemetry = &telemetry
	}
	logger.Debug("snapshot taken",
		logging.String("service_status", report.Snapshot.ServiceStatus),
		logging.Int("plugins", len(report.Snapshot.Plugins)))
	return ctx, report
}

// Check runs one monitoring cycle. An unreachable hub is reported through
// Report.Reachable, not as an error; an error means the notification state
// could not be locked, loaded, or saved.
func (m *Monitor) Check(ctx context.Context) (Report, error) {
	ctx, report := m.Observe(ctx, false)
	logger := logging.WithContext(ctx, m.logger)
	if !report.Reachable {
		return report, nil
	}

	opts := []alerts.RunnerOption{alerts.WithClock(m.now)}
	if m.journal != nil {
		opts = append(opts, alerts.WithJournal(m.journal))
	}
	runner := alerts.NewRunner(m.store, m.dispatcher, notifications.Envelope(m.cfg), alerts.OptionsFromConfig(m.cfg), m.logger, opts...)

	outcome, err := runner.Run(ctx, report.Snapshot.Signals)
	report.Outcome = outcome
	if err != nil {
		return report, fmt.Errorf("evaluate notifications: %w", err)
	}

	report.Pruned = m.prune(ctx, logger)

	logger.Info("status check complete",
		logging.Int("transitions", len(outcome.Decision.Transitions)),
		logging.Int("notifications", len(outcome.Deliveries)),
		logging.Int("failed", len(outcome.Failed())),
		logging.Bool("state_changed", outcome.Decision.Changed))
	return report, nil
}

func (m *Monitor) prune(ctx context.Context, logger *slog.Logger) int64 {
	if m.journal == nil || m.cfg.History.RetentionDays <= 0 {
		return 0
	}
	cutoff := m.now().UTC().Add(-time.Duration(m.cfg.History.RetentionDays) * 24 * time.Hour)
	removed, err := m.journal.Prune(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(logger, "history prune failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "journal keeps growing until the next successful prune"))
		return 0
	}
	if removed > 0 {
		logger.Debug("history pruned", logging.Int64("removed", removed))
	}
	return removed
}
