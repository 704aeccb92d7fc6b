package alerts_test

import (
	"testing"
	"time"

	"hbstatus/internal/alerts"
	"hbstatus/internal/config"
	"hbstatus/internal/notifystate"
	"hbstatus/internal/signals"
)

var t0 = time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

func defaultOptions() alerts.Options {
	cfg := config.Default()
	return alerts.OptionsFromConfig(&cfg)
}

func allGood() signals.Set {
	return signals.NewSet(signals.True, signals.True, signals.True, signals.True)
}

func TestDecideAllGoodIsIdempotent(t *testing.T) {
	prior := notifystate.Initial()
	for i := 0; i < 3; i++ {
		decision := alerts.Decide(t0.Add(time.Duration(i)*time.Hour), allGood(), prior, defaultOptions())
		if decision.Changed {
			t.Fatalf("run %d: expected no change", i)
		}
		if len(decision.Transitions) != 0 {
			t.Fatalf("run %d: expected no transitions, got %+v", i, decision.Transitions)
		}
		if !decision.State.Equal(prior) {
			t.Fatalf("run %d: state drifted", i)
		}
		prior = decision.State
	}
}

func TestDecideServiceStoppedNotifiesOnce(t *testing.T) {
	current := allGood().With(signals.ServiceRunning, signals.False)

	decision := alerts.Decide(t0, current, notifystate.Initial(), defaultOptions())

	if !decision.Changed {
		t.Fatal("expected state change")
	}
	notes := decision.Notifications()
	if len(notes) != 1 {
		t.Fatalf("expected exactly one notification, got %+v", notes)
	}
	if notes[0].Kind != signals.ServiceRunning || notes[0].Direction != alerts.Degraded {
		t.Fatalf("unexpected transition %+v", notes[0])
	}
	if notes[0].Message != "Your Homebridge instance stopped ⁉" {
		t.Fatalf("unexpected message %q", notes[0].Message)
	}
	running := decision.State.Entry(signals.ServiceRunning)
	if running.Status || running.LastNotified == nil || !running.LastNotified.Equal(t0) {
		t.Fatalf("unexpected hbRunning entry %+v", running)
	}
	for _, kind := range []signals.Kind{signals.ServiceUpToDate, signals.PluginsUpToDate, signals.RuntimeUpToDate} {
		if !decision.State.Entry(kind).Equal(notifystate.Good()) {
			t.Fatalf("%s should be untouched, got %+v", kind.Key(), decision.State.Entry(kind))
		}
	}
}

func TestDecideDegradedSuppressedUntilCooldownElapses(t *testing.T) {
	opts := defaultOptions()
	current := allGood().With(signals.PluginsUpToDate, signals.False)

	first := alerts.Decide(t0, current, notifystate.Initial(), opts)
	if len(first.Notifications()) != 1 {
		t.Fatalf("expected initial notification, got %+v", first.Transitions)
	}

	second := alerts.Decide(t0.Add(time.Second), current, first.State, opts)
	if second.Changed || len(second.Transitions) != 0 {
		t.Fatalf("expected suppression one second later, got %+v", second)
	}

	atBoundary := alerts.Decide(t0.Add(24*time.Hour), current, first.State, opts)
	if atBoundary.Changed {
		t.Fatal("exactly one interval elapsed must not re-notify")
	}

	third := alerts.Decide(t0.Add(24*time.Hour+time.Second), current, first.State, opts)
	if len(third.Notifications()) != 1 {
		t.Fatalf("expected re-notification after cooldown, got %+v", third.Transitions)
	}
	last := third.State.Entry(signals.PluginsUpToDate).LastNotified
	if last == nil || !last.Equal(t0.Add(24*time.Hour+time.Second)) {
		t.Fatalf("lastNotified not refreshed: %v", last)
	}
}

func TestDecideCooldownTruncatesToWholeSeconds(t *testing.T) {
	opts := defaultOptions()
	opts.IntervalDays = 0.5
	current := allGood().With(signals.ServiceUpToDate, signals.False)
	prior := notifystate.Initial().WithEntry(signals.ServiceUpToDate, notifystate.Degraded(t0))

	if alerts.Decide(t0.Add(12*time.Hour+999*time.Millisecond), current, prior, opts).Changed {
		t.Fatal("43200.999s truncates to 43200s, which is not greater than a half-day interval")
	}
	if !alerts.Decide(t0.Add(12*time.Hour+time.Second), current, prior, opts).Changed {
		t.Fatal("43201s should exceed a half-day interval")
	}
}

func TestDecideRecoveryClearsTimestamp(t *testing.T) {
	opts := defaultOptions()
	opts.DisableRecoveryNotifications = false
	prior := notifystate.Initial().WithEntry(signals.ServiceUpToDate, notifystate.Degraded(t0))

	decision := alerts.Decide(t0.Add(time.Hour), allGood(), prior, opts)

	if !decision.Changed {
		t.Fatal("expected recovery to change state")
	}
	entry := decision.State.Entry(signals.ServiceUpToDate)
	if !entry.Status || entry.LastNotified != nil {
		t.Fatalf("expected good entry without timestamp, got %+v", entry)
	}
	notes := decision.Notifications()
	if len(notes) != 1 || notes[0].Direction != alerts.Recovered {
		t.Fatalf("expected one recovery notification, got %+v", notes)
	}
	if notes[0].Message != "Homebridge is now up to date ⁉" {
		t.Fatalf("unexpected message %q", notes[0].Message)
	}
}

func TestDecideSuppressedRecoveryStillUpdatesState(t *testing.T) {
	opts := defaultOptions()
	if !opts.DisableRecoveryNotifications {
		t.Fatal("recovery notifications should be disabled by default")
	}
	prior := notifystate.Initial().WithEntry(signals.ServiceRunning, notifystate.Degraded(t0))

	decision := alerts.Decide(t0.Add(time.Minute), allGood(), prior, opts)

	if !decision.Changed {
		t.Fatal("expected state change on suppressed recovery")
	}
	if len(decision.Notifications()) != 0 {
		t.Fatalf("expected no notifications, got %+v", decision.Notifications())
	}
	if len(decision.Transitions) != 1 || decision.Transitions[0].Notify {
		t.Fatalf("expected one silent transition, got %+v", decision.Transitions)
	}
	if !decision.State.Entry(signals.ServiceRunning).Equal(notifystate.Good()) {
		t.Fatalf("unexpected entry %+v", decision.State.Entry(signals.ServiceRunning))
	}
}

func TestDecideSkipsRuntimeWhenDisabled(t *testing.T) {
	opts := defaultOptions()
	opts.IncludeRuntime = false
	current := allGood().With(signals.RuntimeUpToDate, signals.False)
	stale := notifystate.Initial().WithEntry(signals.RuntimeUpToDate, notifystate.Entry{Status: false})

	for _, prior := range []notifystate.State{notifystate.Initial(), stale} {
		decision := alerts.Decide(t0, current, prior, opts)
		if decision.Changed || len(decision.Transitions) != 0 {
			t.Fatalf("runtime signal must be ignored, got %+v", decision)
		}
		if !decision.State.Entry(signals.RuntimeUpToDate).Equal(prior.Entry(signals.RuntimeUpToDate)) {
			t.Fatal("runtime entry must be left untouched")
		}
	}

	opts.IncludeRuntime = true
	decision := alerts.Decide(t0, current, notifystate.Initial(), opts)
	notes := decision.Notifications()
	if len(notes) != 1 || notes[0].Kind != signals.RuntimeUpToDate {
		t.Fatalf("expected runtime notification when enabled, got %+v", notes)
	}
	if notes[0].Message != "Update available for Node.js ⁉" {
		t.Fatalf("unexpected message %q", notes[0].Message)
	}
}

func TestDecideUnknownBehavesLikeFalse(t *testing.T) {
	opts := defaultOptions()
	unknown := allGood().With(signals.ServiceRunning, signals.Unknown)
	falseSet := allGood().With(signals.ServiceRunning, signals.False)

	u := alerts.Decide(t0, unknown, notifystate.Initial(), opts)
	f := alerts.Decide(t0, falseSet, notifystate.Initial(), opts)

	if !u.State.Equal(f.State) {
		t.Fatalf("Unknown and False should produce the same state: %+v vs %+v", u.State, f.State)
	}
	if len(u.Notifications()) != 1 || u.Notifications()[0].Reading != signals.Unknown {
		t.Fatalf("expected one notification for Unknown, got %+v", u.Notifications())
	}
	if u.State.Entry(signals.ServiceRunning).Status {
		t.Fatal("Unknown must record the signal as not good")
	}
}

func TestDecideUnknownDoesNotRecover(t *testing.T) {
	prior := notifystate.Initial().WithEntry(signals.PluginsUpToDate, notifystate.Degraded(t0))
	readings := allGood().With(signals.PluginsUpToDate, signals.Unknown)
	decision := alerts.Decide(t0.Add(time.Minute), readings, prior, defaultOptions())
	if decision.Changed {
		t.Fatalf("Unknown within cooldown must neither recover nor re-notify, got %+v", decision.Transitions)
	}
	if got := decision.State.Entry(signals.PluginsUpToDate); !got.Equal(prior.Entry(signals.PluginsUpToDate)) {
		t.Fatalf("plugins entry changed: got %+v, want %+v", got, prior.Entry(signals.PluginsUpToDate))
	}
}

func TestDecideEvaluatesInFixedOrder(t *testing.T) {
	opts := defaultOptions()
	opts.IncludeRuntime = true
	decision := alerts.Decide(t0, signals.NewSet(signals.False, signals.False, signals.False, signals.False), notifystate.Initial(), opts)

	want := signals.Kinds()
	if len(decision.Transitions) != len(want) {
		t.Fatalf("expected %d transitions, got %d", len(want), len(decision.Transitions))
	}
	for i, kind := range want {
		if decision.Transitions[i].Kind != kind {
			t.Fatalf("transition %d is %s, want %s", i, decision.Transitions[i].Kind, kind)
		}
	}
}

func TestDecideDoesNotMutatePrior(t *testing.T) {
	prior := notifystate.Initial().WithEntry(signals.ServiceUpToDate, notifystate.Degraded(t0))
	snapshot := prior.Clone()

	_ = alerts.Decide(t0.Add(48*time.Hour), signals.NewSet(signals.False, signals.False, signals.True, signals.True), prior, defaultOptions())

	if !prior.Equal(snapshot) {
		t.Fatal("Decide mutated its input state")
	}
}
