// Package format renders hub telemetry for the terminal status panel.
//
// Numbers are rounded half away from zero, printed without trailing zeros,
// and use a configurable decimal separator.
package format
