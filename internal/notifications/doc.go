// Package notifications delivers batch-run events via ntfy.
//
// The default implementation publishes to the topic configured in config.toml
// and gracefully degrades to a no-op when notifications are disabled. Run
// start/complete and per-session failure messages each have their own config
// gate so a long dataset conversion can report only what the operator wants.
//
// Workflow code depends only on the Service interface.
package notifications
