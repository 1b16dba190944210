// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. Most
// payloads alias the HTTP API types so the CLI renders either transport the
// same way.
package ipc
