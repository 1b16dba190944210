// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates queue entries, file records, and manager state
// into transport-friendly DTOs so the CLI and HTTP clients render them
// without coupling to internal types.
//
// # Key Types
//
// QueueEntry: transport representation of a download request with its
// derived state (pending, complete, skipped).
//
// ManagerStatus: running and busy flags, last outcome, cooldown deadline, and
// per-state queue counts.
//
// DaemonStatus: aggregated runtime information including binary dependencies
// and storage volume usage.
//
// LogEvent/LogStreamResponse: structured log payloads for live tailing.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds in
// UTC, and zero times are omitted.
package api
