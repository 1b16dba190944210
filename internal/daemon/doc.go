// Package daemon coordinates the long-running yt4kids process.
//
// It wires configuration, queue storage, and the queue manager into a single
// lifecycle with flock-based locking to prevent multiple instances. The daemon
// exposes queue maintenance helpers (enqueue, skip, remove, clear completed),
// manual ticks, dependency and storage summaries, and the HTTP API served on
// paths.api_bind.
//
// Keep orchestration logic here: download steps live in the fetcher and
// scheduling lives in the workflow package.
package daemon
