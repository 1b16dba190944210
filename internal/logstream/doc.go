// Package logstream prints daemon log events for the CLI, preferring the HTTP
// log API and falling back to IPC when the API is not reachable.
package logstream
