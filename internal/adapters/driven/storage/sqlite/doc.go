// Package sqlite provides the persistent metadata store for dropsync.
//
// A single SQLite database holds mapping rules, the transfer log
// hierarchy, adhoc dedup records, decrypt logs, the file-type registry
// with its recorded uploads, and scheduler state. The unified Store
// exposes each driven store interface through wrapper types.
package sqlite
