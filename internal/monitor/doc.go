// Package monitor runs one status check end to end.
//
// A Monitor authenticates against the Homebridge UI, reads a snapshot of the
// four health signals, and hands them to the alerts runner, which decides,
// notifies, and persists. Every invocation is tagged with a run ID that shows
// up in log lines and journal rows. When the hub cannot be reached the check
// stops early and the notification state is left untouched.
package monitor
