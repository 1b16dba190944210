// Package workflow drives the download queue.
//
// The Manager wakes on a fixed interval, picks the newest eligible queue entry,
// hands it to the Fetcher, and persists the outcome: success completes the
// entry, failure increments its attempt count, and an entry that exhausts the
// retry budget is skipped. At most one attempt is in flight; the slot stays
// held for one poll interval after each attempt so downloads are spaced out.
// Ticks that arrive while the slot is held are dropped, not deferred.
//
// Collaborators are injected through the QueueStore and Fetcher interfaces so
// tests can drive the scheduler with fakes.
package workflow
