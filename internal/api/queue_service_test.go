package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gbarton/yt4kids/internal/queue"
)

type mockQueueReader struct {
	entries  []*queue.Entry
	stats    map[queue.State]int
	file     *queue.FileRecord
	entryErr error
	statsErr error
}

func (m *mockQueueReader) List(_ context.Context, limit int) ([]*queue.Entry, error) {
	if limit > 0 && limit < len(m.entries) {
		return m.entries[:limit], m.entryErr
	}
	return m.entries, m.entryErr
}

func (m *mockQueueReader) Stats(context.Context) (map[queue.State]int, error) {
	return m.stats, m.statsErr
}

func (m *mockQueueReader) Get(_ context.Context, id string) (*queue.Entry, error) {
	for _, entry := range m.entries {
		if entry.ID == id {
			return entry, m.entryErr
		}
	}
	return nil, m.entryErr
}

func (m *mockQueueReader) GetFile(_ context.Context, id string) (*queue.FileRecord, error) {
	if m.file != nil && m.file.ID == id {
		return m.file, nil
	}
	return nil, nil
}

func TestQueueService_List(t *testing.T) {
	now := time.Now().UTC()
	reader := &mockQueueReader{entries: []*queue.Entry{
		{ID: "a", Title: "First", RequestedAt: now},
		{ID: "b", Title: "Second", RequestedAt: now.Add(-time.Minute)},
	}}
	svc := NewQueueService(reader)

	entries, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "a" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].State != "pending" {
		t.Fatalf("State = %q, want pending", entries[0].State)
	}
}

func TestQueueService_ListError(t *testing.T) {
	svc := NewQueueService(&mockQueueReader{entryErr: errors.New("db gone")})
	if _, err := svc.List(context.Background(), 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestQueueService_Stats(t *testing.T) {
	svc := NewQueueService(&mockQueueReader{stats: map[queue.State]int{queue.StateComplete: 2}})
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["complete"] != 2 || stats["pending"] != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	svc = NewQueueService(&mockQueueReader{statsErr: errors.New("locked")})
	if _, err := svc.Stats(context.Background()); err == nil {
		t.Fatal("expected stats error")
	}
}

func TestQueueService_DescribeAndFile(t *testing.T) {
	reader := &mockQueueReader{
		entries: []*queue.Entry{{ID: "vid1", Complete: true}},
		file:    &queue.FileRecord{ID: "vid1", Filename: "Dino_Songs.mp4", FileExtension: "mp4", ContentLength: 42, Kind: queue.FileKindVideo},
	}
	svc := NewQueueService(reader)

	entry, err := svc.Describe(context.Background(), "vid1")
	if err != nil || entry == nil || entry.State != "complete" {
		t.Fatalf("Describe = %+v, %v", entry, err)
	}
	missing, err := svc.Describe(context.Background(), "nope")
	if err != nil || missing != nil {
		t.Fatalf("Describe missing = %+v, %v", missing, err)
	}

	file, err := svc.File(context.Background(), "vid1")
	if err != nil || file == nil || file.ContentLength != 42 || file.Kind != "VIDEO_FILE" {
		t.Fatalf("File = %+v, %v", file, err)
	}
	none, err := svc.File(context.Background(), "nope")
	if err != nil || none != nil {
		t.Fatalf("File missing = %+v, %v", none, err)
	}
}

func TestNewQueueServiceNil(t *testing.T) {
	svc := NewQueueService(nil)
	if svc != nil {
		t.Fatal("expected nil service for nil reader")
	}
	entries, err := svc.List(context.Background(), 0)
	if err != nil || entries != nil {
		t.Fatalf("nil service List = %+v, %v", entries, err)
	}
}
