// Package logging assembles structured slog loggers and formatting helpers used
// across yt4kids.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so manager and fetcher code can
// tag log lines with video IDs, stages, and correlation IDs. The StreamHub keeps
// a bounded tail of recent events for the HTTP log feed.
package logging
