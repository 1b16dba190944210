package api

import (
	"context"

	"github.com/gbarton/yt4kids/internal/queue"
)

// QueueReader abstracts queue persistence interactions needed for API queries.
type QueueReader interface {
	List(ctx context.Context, limit int) ([]*queue.Entry, error)
	Stats(ctx context.Context) (map[queue.State]int, error)
	Get(ctx context.Context, id string) (*queue.Entry, error)
	GetFile(ctx context.Context, id string) (*queue.FileRecord, error)
}

// QueueService exposes read-only queue operations returning API DTOs.
type QueueService struct {
	store QueueReader
}

// NewQueueService constructs a QueueService around the provided reader.
func NewQueueService(store QueueReader) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// List returns up to limit entries, newest request first.
func (s *QueueService) List(ctx context.Context, limit int) ([]QueueEntry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entries, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return FromEntries(entries), nil
}

// Stats returns queue summary counts keyed by state string.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Describe fetches a single entry.
func (s *QueueService) Describe(ctx context.Context, id string) (*QueueEntry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entry, err := s.store.Get(ctx, id)
	if err != nil || entry == nil {
		return nil, err
	}
	dto := FromEntry(entry)
	return &dto, nil
}

// File fetches the record of a downloaded file.
func (s *QueueService) File(ctx context.Context, id string) (*FileRecord, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	record, err := s.store.GetFile(ctx, id)
	if err != nil || record == nil {
		return nil, err
	}
	dto := FromFileRecord(record)
	return &dto, nil
}
