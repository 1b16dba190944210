// Package logs provides the HTTP client for the daemon's /api/logs endpoint.
//
// StreamClient polls buffered log events by sequence cursor, supports tail and
// follow modes, and forwards the configured bearer token. IsAPIUnavailable
// lets callers distinguish a daemon without a reachable API from a genuine
// request failure so they can fall back to IPC.
package logs
