// Package history journals every status transition hbstatus decides on.
//
// The journal is a SQLite database next to the notification state file. Each
// row records one signal changing direction during one run, whether a
// notification went out for it, and the dispatcher error if delivery failed.
// The notification engine never reads it; it exists for `hbstatus history`
// and for operators reconstructing what happened overnight.
package history
