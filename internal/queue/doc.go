// Package queue persists download requests and downloaded file records in
// SQLite.
//
// The Store manages the database connection, schema initialization, SQLITE_BUSY
// retries, and the small set of queries the download manager and operator
// surfaces need: eligible entries newest first, keyed upserts, skip toggling,
// and per-state counts.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package queue
