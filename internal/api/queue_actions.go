package api

import (
	"context"
	"errors"

	"github.com/gbarton/yt4kids/internal/queue"
)

// QueueSkipService captures queue operations needed by per-entry skip workflows.
type QueueSkipService interface {
	ToggleSkip(ctx context.Context, id string) (*queue.Entry, error)
}

type SkipEntryOutcome string

const (
	SkipEntrySkipped   SkipEntryOutcome = "skipped"
	SkipEntryUnskipped SkipEntryOutcome = "unskipped"
	SkipEntryNotFound  SkipEntryOutcome = "not_found"
)

type SkipEntryResult struct {
	ID      string           `json:"id"`
	Outcome SkipEntryOutcome `json:"outcome"`
	Entry   *QueueEntry      `json:"entry,omitempty"`
}

type SkipEntriesResult struct {
	UpdatedCount int64             `json:"updatedCount"`
	Entries      []SkipEntryResult `json:"entries"`
}

// ToggleSkipByID flips the skip flag of each entry and reports the new state.
func ToggleSkipByID(ctx context.Context, service QueueSkipService, ids []string) (SkipEntriesResult, error) {
	result := SkipEntriesResult{Entries: make([]SkipEntryResult, 0, len(ids))}
	for _, id := range ids {
		entry, err := service.ToggleSkip(ctx, id)
		if errors.Is(err, queue.ErrNotFound) {
			result.Entries = append(result.Entries, SkipEntryResult{ID: id, Outcome: SkipEntryNotFound})
			continue
		}
		if err != nil {
			return SkipEntriesResult{}, err
		}
		dto := FromEntry(entry)
		outcome := SkipEntryUnskipped
		if entry.Skip {
			outcome = SkipEntrySkipped
		}
		result.UpdatedCount++
		result.Entries = append(result.Entries, SkipEntryResult{ID: id, Outcome: outcome, Entry: &dto})
	}
	return result, nil
}
