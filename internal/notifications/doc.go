// Package notifications narrates resolution progress and failures via
// pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Progress and
// error events can be silenced independently. Notification failures are
// returned to the caller, which logs them and carries on.
package notifications
