// Package hubapi talks to the Homebridge UI management API.
//
// A Client authenticates (trying the no-auth endpoint before the credential
// login), then reads the service status, version information, plugin list,
// and system telemetry. Every request runs with a fixed timeout and is never
// retried: a failed read turns into an Unknown signal rather than an error, so
// a flaky hub degrades the report instead of aborting the run.
package hubapi
