package alerts

import (
	"context"
	"log/slog"
	"time"

	"hbstatus/internal/history"
	"hbstatus/internal/logging"
	"hbstatus/internal/notifications"
	"hbstatus/internal/notifystate"
	"hbstatus/internal/signals"
)

// StateStore is the persistence the Runner needs.
type StateStore interface {
	Lock(ctx context.Context) (func() error, error)
	Load() (notifystate.State, error)
	Save(state notifystate.State) error
}

// Journal records transitions for later inspection.
type Journal interface {
	Record(ctx context.Context, entries ...history.Entry) error
}

// Delivery is the dispatch result for one notifiable transition.
type Delivery struct {
	Transition Transition
	Err        error
}

// Outcome summarizes one Run.
type Outcome struct {
	Decision   Decision
	Deliveries []Delivery
	// Skipped is true when notifications are disabled and nothing was evaluated.
	Skipped bool
}

// Failed returns the deliveries whose dispatch returned an error.
func (o Outcome) Failed() []Delivery {
	var failed []Delivery
	for _, d := range o.Deliveries {
		if d.Err != nil {
			failed = append(failed, d)
		}
	}
	return failed
}

// Runner performs one notification cycle against persisted state.
type Runner struct {
	store      StateStore
	dispatcher notifications.Dispatcher
	envelope   notifications.Request
	journal    Journal
	opts       Options
	now        func() time.Time
	logger     *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithJournal records every transition, including suppressed recoveries.
func WithJournal(journal Journal) RunnerOption {
	return func(r *Runner) {
		r.journal = journal
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner wires the decision engine to its collaborators. envelope supplies
// the title, action, and sound of every request; Body comes from the transition.
func NewRunner(store StateStore, dispatcher notifications.Dispatcher, envelope notifications.Request, opts Options, logger *slog.Logger, options ...RunnerOption) *Runner {
	if dispatcher == nil {
		dispatcher = notifications.Noop()
	}
	r := &Runner{
		store:      store,
		dispatcher: dispatcher,
		envelope:   envelope,
		opts:       opts,
		now:        time.Now,
		logger:     logging.NewComponentLogger(logger, "alerts"),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Run evaluates current against the stored state, dispatches notifications,
// and persists the result. Dispatch and journal failures are logged, never
// returned; an error means the state could not be locked, loaded, or saved.
func (r *Runner) Run(ctx context.Context, current signals.Set) (Outcome, error) {
	if !r.opts.Enabled {
		r.logger.Debug("notifications disabled, skipping evaluation")
		return Outcome{Skipped: true}, nil
	}
	logger := logging.WithContext(ctx, r.logger)

	unlock, err := r.store.Lock(ctx)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		if err := unlock(); err != nil {
			logging.WarnWithContext(logger, "failed to release state lock", "state_unlock_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "next run may wait for the lock timeout"))
		}
	}()

	prior, err := r.store.Load()
	if err != nil {
		return Outcome{}, err
	}

	now := r.now().UTC()
	decision := Decide(now, current, prior, r.opts)
	outcome := Outcome{Decision: decision}

	errs := make(map[int]error)
	for idx, transition := range decision.Transitions {
		attrs := []logging.Attr{
			logging.String(logging.FieldSignal, transition.Kind.Key()),
			logging.String(logging.FieldDirection, transition.Direction.String()),
			logging.String("reading", transition.Reading.String()),
			logging.Bool("notify", transition.Notify),
		}
		logger.Info("status changed", logging.Args(attrs...)...)
		if !transition.Notify {
			continue
		}
		err := r.dispatch(ctx, transition)
		errs[idx] = err
		outcome.Deliveries = append(outcome.Deliveries, Delivery{Transition: transition, Err: err})
		if err != nil {
			logging.WarnWithContext(logger, "notification dispatch failed", "dispatch_failed",
				logging.String(logging.FieldSignal, transition.Kind.Key()),
				logging.String(logging.FieldDispatcher, r.dispatcher.Name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'hbstatus test-notify' to check the notification target"),
				logging.String(logging.FieldImpact, "status change recorded without alerting the user"))
		}
	}

	if decision.Changed {
		if err := r.store.Save(decision.State); err != nil {
			return outcome, err
		}
	}

	r.journalTransitions(ctx, logger, decision.Transitions, errs)
	return outcome, nil
}

func (r *Runner) dispatch(ctx context.Context, transition Transition) error {
	req := r.envelope
	req.Body = transition.Message
	return r.dispatcher.Dispatch(ctx, req)
}

func (r *Runner) journalTransitions(ctx context.Context, logger *slog.Logger, transitions []Transition, errs map[int]error) {
	if r.journal == nil || len(transitions) == 0 {
		return
	}
	runID, _ := logging.RunIDFromContext(ctx)
	entries := make([]history.Entry, 0, len(transitions))
	for idx, transition := range transitions {
		entry := history.Entry{
			RunID:      runID,
			Signal:     transition.Kind.Key(),
			Direction:  transition.Direction.String(),
			Message:    transition.Message,
			Notified:   transition.Notify,
			Dispatcher: r.dispatcher.Name(),
			OccurredAt: transition.At,
		}
		if err := errs[idx]; err != nil {
			entry.DispatchError = err.Error()
		}
		entries = append(entries, entry)
	}
	if err := r.journal.Record(ctx, entries...); err != nil {
		logging.WarnWithContext(logger, "failed to journal transitions", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "hbstatus history will miss this run"))
	}
}
