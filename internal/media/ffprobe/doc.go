// Package ffprobe provides a typed wrapper around ffprobe JSON output, used to
// confirm that a muxed download actually contains playable streams.
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
package ffprobe
