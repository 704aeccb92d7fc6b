// Package config loads, normalizes, and validates hbstatus configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HB_URL, HB_USERNAME and HB_PASSWORD. The Config type centralizes every knob
// the CLI needs: hub connection details, notification wording and cadence,
// display preferences, and where state, history and logs live.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
