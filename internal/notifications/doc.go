// Package notifications delivers status-change alerts via pluggable dispatchers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a log-only dispatcher when no topic is set, so a
// run always leaves a trace of what it would have told the user. Requests
// carry the same fields a phone notification has: title, body, one action
// button, and a sound.
//
// The decision engine depends only on the Dispatcher interface; add
// transports here rather than in callers.
package notifications
