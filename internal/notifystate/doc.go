// Package notifystate persists what hbstatus last told the user about each
// health signal.
//
// The state file is a small JSON document (jsonVersion plus one entry per
// signal) that survives between invocations. FileStore owns every side effect
// around it: first-run creation, recovery from corrupt files, schema
// migration with a verbatim DEPRECATED_ archive, rename-on-write saves, and
// an advisory lock that serializes overlapping runs.
package notifystate
