// Package alerts decides which status changes deserve a notification.
//
// Decide is a pure function over the current signal readings, the persisted
// notification state, and the configured options: it returns the next state
// and an ordered list of transitions without touching the clock, disk, or
// network. Runner wraps it with the side effects of one run: locking and
// loading the state file, dispatching notifications, saving, and journaling.
//
// A signal that is not affirmatively good (False or Unknown) is treated as
// degraded. It is reported once when it first goes bad and then again only
// after the re-notification interval has elapsed. A return to good clears the
// timestamp and may be reported as a recovery.
package alerts
