package alerts

import (
	"time"

	"hbstatus/internal/config"
	"hbstatus/internal/notifystate"
	"hbstatus/internal/signals"
)

const secondsPerDay = 24 * 60 * 60

// Direction says which way a signal moved.
type Direction int

const (
	// Degraded means a signal that was good no longer reads true.
	Degraded Direction = iota
	// Recovered means a degraded signal reads true again.
	Recovered
)

func (d Direction) String() string {
	if d == Recovered {
		return "recovered"
	}
	return "degraded"
}

// Messages holds the notification body for each kind and direction.
type Messages struct {
	Degraded  map[signals.Kind]string
	Recovered map[signals.Kind]string
}

// For returns the message for kind moving in direction.
func (m Messages) For(kind signals.Kind, direction Direction) string {
	if direction == Recovered {
		return m.Recovered[kind]
	}
	return m.Degraded[kind]
}

// MessagesFromConfig maps the configured texts onto kinds.
func MessagesFromConfig(msgs config.Messages) Messages {
	return Messages{
		Degraded: map[signals.Kind]string{
			signals.ServiceRunning:  msgs.ServiceNotRunning,
			signals.ServiceUpToDate: msgs.ServiceOutdated,
			signals.PluginsUpToDate: msgs.PluginsOutdated,
			signals.RuntimeUpToDate: msgs.RuntimeOutdated,
		},
		Recovered: map[signals.Kind]string{
			signals.ServiceRunning:  msgs.ServiceBackOnline,
			signals.ServiceUpToDate: msgs.ServiceUpToDate,
			signals.PluginsUpToDate: msgs.PluginsUpToDate,
			signals.RuntimeUpToDate: msgs.RuntimeUpToDate,
		},
	}
}

// Options controls the decision rules.
type Options struct {
	// Enabled gates the whole engine. A disabled Runner never touches state.
	Enabled bool
	// IntervalDays is the minimum time between repeated degraded
	// notifications for a signal that stays bad.
	IntervalDays                 float64
	DisableRecoveryNotifications bool
	// IncludeRuntime evaluates the runtime-up-to-date signal. When false it
	// is skipped entirely and its entry is left untouched.
	IncludeRuntime bool
	Messages       Messages
}

// OptionsFromConfig derives decision options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Enabled:                      cfg.Notifications.Enabled,
		IntervalDays:                 cfg.Notifications.IntervalDays,
		DisableRecoveryNotifications: cfg.Notifications.DisableBackToNormal,
		IncludeRuntime:               cfg.Display.ShowNodeJSStatus,
		Messages:                     MessagesFromConfig(cfg.Notifications.Messages),
	}
}

// Transition is one signal changing its recorded condition.
type Transition struct {
	Kind      signals.Kind
	Direction Direction
	Reading   signals.Ternary
	Message   string
	// Notify is false for recoveries when recovery notifications are disabled.
	Notify bool
	At     time.Time
}

// Decision is the outcome of evaluating one set of readings.
type Decision struct {
	State       notifystate.State
	Transitions []Transition
	// Changed is true when State differs from the prior state and must be saved.
	Changed bool
}

// Notifications returns the transitions that should be dispatched, in order.
func (d Decision) Notifications() []Transition {
	out := make([]Transition, 0, len(d.Transitions))
	for _, t := range d.Transitions {
		if t.Notify {
			out = append(out, t)
		}
	}
	return out
}

// Evaluated returns the kinds Decide looks at under opts.
func Evaluated(opts Options) []signals.Kind {
	kinds := signals.Kinds()
	if opts.IncludeRuntime {
		return kinds
	}
	out := kinds[:0]
	for _, kind := range kinds {
		if kind != signals.RuntimeUpToDate {
			out = append(out, kind)
		}
	}
	return out
}

// Decide applies the notification rules to every evaluated signal in order.
func Decide(now time.Time, current signals.Set, prior notifystate.State, opts Options) Decision {
	next := prior.Clone()
	decision := Decision{State: next}

	for _, kind := range Evaluated(opts) {
		reading := current.Get(kind)
		entry := prior.Entry(kind)

		switch {
		case shouldNotifyDegraded(now, reading, entry, opts.IntervalDays):
			decision.State = decision.State.WithEntry(kind, notifystate.Degraded(now))
			decision.Changed = true
			decision.Transitions = append(decision.Transitions, Transition{
				Kind:      kind,
				Direction: Degraded,
				Reading:   reading,
				Message:   opts.Messages.For(kind, Degraded),
				Notify:    true,
				At:        now,
			})
		case reading.IsTrue() && !entry.Status:
			decision.State = decision.State.WithEntry(kind, notifystate.Good())
			decision.Changed = true
			decision.Transitions = append(decision.Transitions, Transition{
				Kind:      kind,
				Direction: Recovered,
				Reading:   reading,
				Message:   opts.Messages.For(kind, Recovered),
				Notify:    !opts.DisableRecoveryNotifications,
				At:        now,
			})
		}
	}
	return decision
}

func shouldNotifyDegraded(now time.Time, reading signals.Ternary, entry notifystate.Entry, intervalDays float64) bool {
	if reading.IsTrue() {
		return false
	}
	return entry.Status || cooldownElapsed(now, entry.LastNotified, intervalDays)
}

// cooldownElapsed compares whole elapsed seconds against the interval.
func cooldownElapsed(now time.Time, lastNotified *time.Time, intervalDays float64) bool {
	if lastNotified == nil {
		return true
	}
	elapsed := int64(now.Sub(*lastNotified) / time.Second)
	return float64(elapsed) > intervalDays*secondsPerDay
}
