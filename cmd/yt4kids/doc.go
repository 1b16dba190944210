// Package main hosts the yt4kids CLI entrypoint and command graph.
//
// The Cobra command tree translates terminal invocations into IPC calls
// against the daemon. Queue commands fall back to opening the SQLite queue
// directly when no daemon is listening, so entries can be added and inspected
// offline. Configuration resolution and socket discovery live here; the
// heavy lifting stays in the internal packages.
package main
