package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gbarton/yt4kids/internal/logging"
	"github.com/gbarton/yt4kids/internal/queue"
	"github.com/gbarton/yt4kids/internal/services"
)

// downloadNext runs with the slot held. The slot is released immediately when
// there is nothing to do and after the cooldown once an attempt was made.
func (m *Manager) downloadNext(ctx context.Context, release func()) TickResult {
	cooldown := false
	defer func() {
		if cooldown {
			m.scheduleRelease(release)
		} else {
			release()
		}
	}()

	entries, err := m.store.FindEligible(ctx, m.batchSize)
	if err != nil {
		logging.ErrorWithContext(m.logger, "failed to read eligible queue entries", "queue_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
		return TickResult{Outcome: TickError, Err: err}
	}
	if len(entries) == 0 {
		m.logger.Debug("no eligible queue entries")
		return TickResult{Outcome: TickNoWork}
	}

	entry := entries[0]
	if err := m.runPreflightChecks(ctx); err != nil {
		return TickResult{Outcome: TickError, EntryID: entry.ID, Attempts: entry.Attempts, Err: err}
	}

	cooldown = true
	return m.attempt(ctx, entry)
}

func (m *Manager) attempt(ctx context.Context, entry *queue.Entry) TickResult {
	ctx = services.WithItemID(ctx, entry.ID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)
	logger.Info("download attempt started",
		logging.String("title", entry.Title),
		logging.String("author_id", entry.AuthorID),
		logging.Int("previous_attempts", entry.Attempts),
	)

	m.mu.Lock()
	m.lastAttemptAt = m.now()
	m.mu.Unlock()

	record, fetchErr := m.safeFetch(ctx, entry)
	if errors.Is(fetchErr, errManagerStopped) {
		logger.Info("download attempt interrupted by shutdown",
			logging.String(logging.FieldEventType, "attempt_interrupted"),
			logging.Error(fetchErr),
		)
		return TickResult{Outcome: TickInterrupted, EntryID: entry.ID, Attempts: entry.Attempts, Err: fetchErr}
	}

	updated := *entry
	updated.UpdatedAt = m.now().UTC()
	result := TickResult{EntryID: entry.ID}
	if fetchErr == nil {
		updated.Complete = true
		updated.LastError = ""
		result.Outcome = TickCompleted
	} else {
		updated.Attempts++
		updated.LastError = fetchErr.Error()
		result.Outcome = TickFailed
		result.Err = fetchErr
		if updated.Attempts >= m.maxAttempts {
			updated.Skip = true
			result.Outcome = TickSkipped
		}
	}
	result.Attempts = updated.Attempts

	// A stop mid-fetch cancels ctx; the outcome is still persisted.
	persistCtx := context.WithoutCancel(ctx)
	stored, err := m.store.RecordAttempt(persistCtx, &updated, entry.UpdatedAt)
	if err != nil {
		logging.ErrorWithContext(logger, "failed to persist attempt outcome", "queue_update_failed",
			logging.Error(err),
			logging.String("outcome", string(result.Outcome)),
			logging.String(logging.FieldErrorHint, "check queue database access; the entry will be retried"),
		)
		return TickResult{Outcome: TickError, EntryID: entry.ID, Attempts: updated.Attempts, Err: err}
	}
	if !stored {
		logger.Info("entry changed during download attempt; outcome discarded",
			logging.String(logging.FieldEventType, "attempt_superseded"),
			logging.String("outcome", string(result.Outcome)),
		)
		return TickResult{Outcome: TickSuperseded, EntryID: entry.ID, Attempts: entry.Attempts}
	}
	m.setLastEntry(&updated)

	switch result.Outcome {
	case TickCompleted:
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "download_completed"),
			logging.Int("attempts", updated.Attempts),
		}
		if record != nil {
			attrs = append(attrs,
				logging.String("file", record.Filename),
				logging.Int64("content_length", record.ContentLength),
			)
		}
		logger.Info("download completed", logging.Args(attrs...)...)
	case TickSkipped:
		logging.ErrorWithContext(logger, "entry skipped after max attempts", "entry_skipped",
			logging.Error(fetchErr),
			logging.Int("attempts", updated.Attempts),
			logging.String("error_kind", services.Kind(fetchErr)),
			logging.String("error_stage", services.StageOf(fetchErr)),
			logging.String(logging.FieldErrorHint, "check the video id, then un-skip with `yt4kids queue skip`"),
		)
	default:
		logging.WarnWithContext(logger, "download attempt failed", "download_failed",
			logging.Error(fetchErr),
			logging.Int("attempts", updated.Attempts),
			logging.Int("max_attempts", m.maxAttempts),
			logging.String("error_kind", services.Kind(fetchErr)),
			logging.String("error_stage", services.StageOf(fetchErr)),
			logging.String(logging.FieldImpact, "entry will be retried on a later tick"),
		)
	}
	m.notifyOutcome(persistCtx, &updated, record, result)
	return result
}

// safeFetch runs the fetcher under a cancel func that Stop can reach and turns
// panics into errors.
func (m *Manager) safeFetch(ctx context.Context, entry *queue.Entry) (record *queue.FileRecord, err error) {
	fetchCtx, cancel := context.WithCancelCause(ctx)
	m.mu.Lock()
	m.inflight = cancel
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inflight = nil
		m.mu.Unlock()
		cancel(nil)
	}()

	defer func() {
		if r := recover(); r != nil {
			record = nil
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	if m.fetcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "fetcher", "not configured", nil)
	}
	record, err = m.fetcher.Fetch(fetchCtx, entry.ID, entry.AuthorID)
	if err != nil && errors.Is(context.Cause(fetchCtx), errManagerStopped) {
		return nil, fmt.Errorf("%w: %w", errManagerStopped, err)
	}
	return record, err
}
