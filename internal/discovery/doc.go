// Package discovery walks the dataset tree and enumerates every behavioral
// session eligible for conversion.
//
// The fiber photometry arm is walked twice: once over the recording folders,
// pairing each tank with the behavior session logged the same day, and once
// over the behavior logs so sessions without a recording still convert.
// Behavior for a subject may live in a per-subject log, scattered across
// by-date logs, or only in spreadsheet exports; exports are matched back to
// by-date logs by comparing port-entry arrays. The optogenetics arm walks
// group, subgroup, and treatment folders whose entries follow a dozen
// naming conventions.
//
// Dataset-specific exceptions (skip-lists, subject id aliases, split
// recordings, swapped TTL cables) live in overrides.yaml rather than code,
// so a newly found bad recording means a new table entry, not a new
// conditional.
package discovery
