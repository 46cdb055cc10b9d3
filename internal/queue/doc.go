// Package queue persists planned session conversions in SQLite and exposes
// helpers for driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, stale-item recovery, and the atomic claim
// workers use to pull pending sessions. Items carry the typed columns list
// output needs plus the full session plan as JSON so discovery and conversion
// stay decoupled.
//
// The database is treated as transient storage for a conversion run rather
// than a long-term archive. Schema changes bump the version in schema.go;
// users clear the database to adopt the new schema.
package queue
