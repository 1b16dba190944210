// Package notifications delivers download events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and can mirror every event onto a Redis list for downstream
// consumers. It degrades to a no-op when neither transport is configured.
// Enumerated event types cover the queue manager's outcomes so callers emit
// consistent messages without duplicating HTTP glue.
//
// All manager and daemon code depends only on the Service interface.
package notifications
