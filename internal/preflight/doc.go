// Package preflight provides readiness checks for the filesystem paths and
// queue database that a batch conversion run depends on.
//
// These checks run in two contexts:
//   - The workflow runner calls RunAll before claiming any sessions. If a
//     required check fails, the run halts before wasting hours on a doomed
//     batch.
//   - The CLI run/convert commands surface individual check failures in
//     their error output.
//
// Dataset file checks are gated by their config entries; unset optional
// paths are skipped.
package preflight
