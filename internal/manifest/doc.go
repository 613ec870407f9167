// Package manifest records completed conversions so a rerun can tell a
// finished output from one left behind by an interrupted or failed run.
//
// A [Record] captures the source file's size and modification time and the
// published output's size and SHA-256. [Store] persists records keyed by the
// path relative to the input root. Two backends are provided: SQLite
// (modernc.org/sqlite, pure Go) and Pebble. Both live under the output
// root's state directory.
package manifest
