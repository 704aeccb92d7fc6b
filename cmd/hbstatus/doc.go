// Package main hosts the hbstatus CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into one-shot
// operations: a monitoring cycle meant for cron, a read-only status panel,
// inspection and reset of the notification state, the transition journal,
// a test notification, preflight checks, and configuration scaffolding. It
// centralizes configuration resolution and logging setup so subcommands can
// focus on output instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
