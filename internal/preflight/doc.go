// Package preflight provides readiness checks for the hub, the notification
// target, and the filesystem paths that hbstatus depends on.
//
// The CLI "hbstatus doctor" command runs RunAll and prints one line per
// check. Checks never modify notification state, and each is gated by its
// config toggle -- disabled features report as passed with a "Disabled" detail.
package preflight
