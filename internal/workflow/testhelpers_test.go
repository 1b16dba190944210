package workflow_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gbarton/yt4kids/internal/notifications"
	"github.com/gbarton/yt4kids/internal/queue"
)

// memStore is an in-memory QueueStore that keeps every recorded attempt.
type memStore struct {
	mu        sync.Mutex
	entries   map[string]*queue.Entry
	recorded  []queue.Entry
	findErr   error
	recordErr error
	finds     int
	// findGate, when set, holds FindEligible until it is closed.
	findGate chan struct{}
}

func newMemStore(entries ...queue.Entry) *memStore {
	s := &memStore{entries: make(map[string]*queue.Entry)}
	for i := range entries {
		e := entries[i]
		s.entries[e.ID] = &e
	}
	return s
}

func (s *memStore) FindEligible(_ context.Context, limit int) ([]*queue.Entry, error) {
	if s.findGate != nil {
		<-s.findGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []*queue.Entry
	for _, e := range s.entries {
		if e.Eligible() {
			copy := *e
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) RecordAttempt(_ context.Context, entry *queue.Entry, lastSeen time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return false, s.recordErr
	}
	current, ok := s.entries[entry.ID]
	if !ok || !current.Eligible() || !current.UpdatedAt.Equal(lastSeen) {
		return false, nil
	}
	copy := *entry
	s.entries[entry.ID] = &copy
	s.recorded = append(s.recorded, copy)
	return true, nil
}

func (s *memStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recorded)
}

func (s *memStore) findCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finds
}

func (s *memStore) lastRecorded(t *testing.T) queue.Entry {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.recorded) == 0 {
		t.Fatal("expected at least one recorded attempt")
	}
	return s.recorded[len(s.recorded)-1]
}

// fakeFetcher returns err (or panics) and tracks concurrency.
type fakeFetcher struct {
	err     error
	panic   bool
	block   chan struct{}
	started chan string

	calls     atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, videoID, authorID string) (*queue.FileRecord, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		current := f.maxActive.Load()
		if n <= current || f.maxActive.CompareAndSwap(current, n) {
			break
		}
	}
	if f.started != nil {
		select {
		case f.started <- videoID:
		default:
		}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panic {
		panic("extractor exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &queue.FileRecord{
		ID:            videoID,
		AuthorID:      authorID,
		Filename:      "/storage/VIDEO_FILE/" + authorID + "/" + videoID + ".mp4",
		FileExtension: "mp4",
		ContentLength: 1024,
		Kind:          queue.FileKindVideo,
	}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingNotifier) snapshot() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Event(nil), r.events...)
}

func pending(id string, attempts int, requested time.Time) queue.Entry {
	return queue.Entry{ID: id, AuthorID: "author-" + id, Title: "Title " + id, RequestedAt: requested, Attempts: attempts}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

var errFetch = errors.New("format negotiation failed")
