package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/gbarton/yt4kids/internal/queue"
)

// QueueStore is the persistence surface the manager needs.
type QueueStore interface {
	FindEligible(ctx context.Context, limit int) ([]*queue.Entry, error)
	RecordAttempt(ctx context.Context, entry *queue.Entry, lastSeen time.Time) (bool, error)
}

// Fetcher downloads one video. A returned error or a panic is a failed attempt.
type Fetcher interface {
	Fetch(ctx context.Context, videoID, authorID string) (*queue.FileRecord, error)
}

var errManagerStopped = errors.New("queue manager stopped")

// Outcome classifies a tick.
type Outcome string

const (
	// TickBusy means the slot was held and the tick was dropped.
	TickBusy Outcome = "busy"
	// TickNoWork means no eligible entry existed.
	TickNoWork Outcome = "no_work"
	// TickCompleted means the entry downloaded successfully.
	TickCompleted Outcome = "completed"
	// TickFailed means the attempt failed with retry budget left.
	TickFailed Outcome = "failed"
	// TickSkipped means the attempt failed and the entry is now skipped.
	TickSkipped Outcome = "skipped"
	// TickSuperseded means the entry was skipped, removed or re-enqueued while
	// the attempt ran, so its outcome was discarded.
	TickSuperseded Outcome = "superseded"
	// TickInterrupted means Stop cancelled the fetch; the entry is left as it
	// was and the attempt is not counted.
	TickInterrupted Outcome = "interrupted"
	// TickError means the queue could not be read or written, or preflight failed.
	TickError Outcome = "error"
)

// TickResult reports what a single tick did.
type TickResult struct {
	Outcome  Outcome
	EntryID  string
	Attempts int
	Err      error
}

// StatusSummary represents lightweight manager diagnostics.
type StatusSummary struct {
	Running       bool
	// Busy reports that the slot is held. It is also true while a tick runs
	// its eligibility query, even when the queue turns out to be empty.
	Busy          bool
	LastError     string
	LastEntry     *queue.Entry
	LastOutcome   Outcome
	LastAttemptAt time.Time
	CooldownUntil time.Time
	PollInterval  time.Duration
	MaxAttempts   int
}
