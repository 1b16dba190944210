package queue_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gbarton/yt4kids/internal/queue"
	"github.com/gbarton/yt4kids/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if store.Path() != cfg.QueueDBPath() {
		t.Fatalf("unexpected db path: %q", store.Path())
	}

	ctx := context.Background()
	entry := testsupport.MustEnqueue(t, store, "vid-1", "author-1", "First Video")
	if entry.ID != "vid-1" || entry.AuthorID != "author-1" || entry.Title != "First Video" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if entry.State() != queue.StatePending || entry.Attempts != 0 {
		t.Fatalf("expected fresh pending entry, got %#v", entry)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened := testsupport.MustOpenStore(t, cfg)
	fetched, err := reopened.Get(ctx, "vid-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil || fetched.Title != "First Video" {
		t.Fatalf("expected entry to survive reopen, got %#v", fetched)
	}
}

func TestOpenReusesAndGuardsSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	testsupport.MustEnqueue(t, store, "vid-keep", "", "Kept")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	entry, err := reopened.Get(context.Background(), "vid-keep")
	if err != nil || entry == nil {
		t.Fatalf("expected entry after reopen, got %v err=%v", entry, err)
	}
	_ = reopened.Close()

	db, err := sql.Open("sqlite", cfg.QueueDBPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump user_version: %v", err)
	}
	_ = db.Close()

	if _, err := queue.Open(cfg); !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	entry, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry, got %#v", entry)
	}
}

func TestFindEligibleOrdersNewestFirstAndFilters(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	fixtures := []queue.Entry{
		{ID: "old", RequestedAt: base},
		{ID: "newest", RequestedAt: base.Add(2 * time.Hour)},
		{ID: "middle", RequestedAt: base.Add(time.Hour)},
		{ID: "done", RequestedAt: base.Add(3 * time.Hour), Complete: true},
		{ID: "skipped", RequestedAt: base.Add(4 * time.Hour), Skip: true, Attempts: 10},
	}
	for i := range fixtures {
		if err := store.Upsert(ctx, &fixtures[i]); err != nil {
			t.Fatalf("Upsert %s: %v", fixtures[i].ID, err)
		}
	}

	entries, err := store.FindEligible(ctx, 20)
	if err != nil {
		t.Fatalf("FindEligible failed: %v", err)
	}
	got := ids(entries)
	want := []string{"newest", "middle", "old"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("unexpected order: got %v want %v", got, want)
	}

	limited, err := store.FindEligible(ctx, 1)
	if err != nil {
		t.Fatalf("FindEligible limit failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "newest" {
		t.Fatalf("expected only newest, got %v", ids(limited))
	}
}

func TestFindEligibleTieBreaksOnInsertionOrder(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	same := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, id := range []string{"first", "second", "third"} {
		if err := store.Upsert(ctx, &queue.Entry{ID: id, RequestedAt: same}); err != nil {
			t.Fatalf("Upsert %s: %v", id, err)
		}
	}
	entries, err := store.FindEligible(ctx, 20)
	if err != nil {
		t.Fatalf("FindEligible failed: %v", err)
	}
	if len(entries) != 3 || entries[0].ID != "third" {
		t.Fatalf("expected most recently inserted first, got %v", ids(entries))
	}
}

func TestUpsertMergesByID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	entry := testsupport.MustEnqueue(t, store, "vid", "author", "Title")

	entry.Attempts = 3
	entry.LastError = "network unreachable"
	entry.Title = ""
	if err := store.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	fetched, err := store.Get(ctx, "vid")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Attempts != 3 || fetched.LastError != "network unreachable" {
		t.Fatalf("expected merged failure state, got %#v", fetched)
	}
	if fetched.Title != "Title" {
		t.Fatalf("empty title should keep stored value, got %q", fetched.Title)
	}
	if !fetched.RequestedAt.Equal(entry.RequestedAt) {
		t.Fatalf("requested_at changed: %v vs %v", fetched.RequestedAt, entry.RequestedAt)
	}

	list, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one row after upsert, got %d", len(list))
	}
}

func TestRecordAttemptRequiresUnchangedEligibleRow(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	seen := testsupport.MustEnqueue(t, store, "vid", "author", "Title")
	outcome := *seen
	outcome.Attempts = 1
	outcome.LastError = "format negotiation failed"
	outcome.UpdatedAt = time.Now().UTC()
	stored, err := store.RecordAttempt(ctx, &outcome, seen.UpdatedAt)
	if err != nil || !stored {
		t.Fatalf("RecordAttempt on unchanged row = %v, %v", stored, err)
	}
	fetched, err := store.Get(ctx, "vid")
	if err != nil || fetched.Attempts != 1 || fetched.LastError != "format negotiation failed" {
		t.Fatalf("expected recorded failure, got %#v, %v", fetched, err)
	}

	// A second write with the stale updated_at is refused.
	outcome.Attempts = 2
	if stored, err := store.RecordAttempt(ctx, &outcome, seen.UpdatedAt); err != nil || stored {
		t.Fatalf("stale RecordAttempt = %v, %v", stored, err)
	}

	// Skip then un-skip leaves the row eligible but changed.
	current := fetched
	for i := 0; i < 2; i++ {
		if _, err := store.ToggleSkip(ctx, "vid"); err != nil {
			t.Fatalf("ToggleSkip: %v", err)
		}
	}
	if stored, err := store.RecordAttempt(ctx, &outcome, current.UpdatedAt); err != nil || stored {
		t.Fatalf("RecordAttempt after operator change = %v, %v", stored, err)
	}

	if _, err := store.Remove(ctx, "vid"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if stored, err := store.RecordAttempt(ctx, &outcome, current.UpdatedAt); err != nil || stored {
		t.Fatalf("RecordAttempt on removed row = %v, %v", stored, err)
	}
	if got, err := store.Get(ctx, "vid"); err != nil || got != nil {
		t.Fatalf("removed row came back: %#v, %v", got, err)
	}
}

func TestUpsertRejectsMissingID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.Upsert(context.Background(), &queue.Entry{ID: "  "}); err == nil {
		t.Fatal("expected error for blank id")
	}
	if err := store.Upsert(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil entry")
	}
}

func TestEnqueueResetsExistingEntry(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	entry := testsupport.MustEnqueue(t, store, "vid", "author", "Title")
	entry.Skip = true
	entry.Attempts = 10
	entry.LastError = "gave up"
	if err := store.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	time.Sleep(2 * time.Millisecond)
	again := testsupport.MustEnqueue(t, store, "vid", "author", "")
	if again.Skip || again.Complete || again.Attempts != 0 || again.LastError != "" {
		t.Fatalf("expected fresh state after re-enqueue, got %#v", again)
	}
	if !again.RequestedAt.After(entry.RequestedAt) {
		t.Fatalf("expected requested_at to move forward")
	}
	if again.Title != "Title" {
		t.Fatalf("expected title preserved, got %q", again.Title)
	}
}

func TestToggleSkip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	entry := testsupport.MustEnqueue(t, store, "vid", "author", "Title")
	entry.Attempts = 4
	entry.LastError = "boom"
	if err := store.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	skipped, err := store.ToggleSkip(ctx, "vid")
	if err != nil {
		t.Fatalf("ToggleSkip failed: %v", err)
	}
	if !skipped.Skip || skipped.Attempts != 4 {
		t.Fatalf("skipping should keep attempts, got %#v", skipped)
	}

	restored, err := store.ToggleSkip(ctx, "vid")
	if err != nil {
		t.Fatalf("ToggleSkip failed: %v", err)
	}
	if restored.Skip || restored.Attempts != 0 || restored.LastError != "" {
		t.Fatalf("un-skip should reset the retry budget, got %#v", restored)
	}

	fetched, err := store.Get(ctx, "vid")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !fetched.Eligible() {
		t.Fatalf("expected entry eligible again, got %#v", fetched)
	}

	if _, err := store.ToggleSkip(ctx, "missing"); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsRemoveAndClearCompleted(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, e := range []queue.Entry{
		{ID: "p1"}, {ID: "p2"},
		{ID: "c1", Complete: true},
		{ID: "s1", Skip: true},
	} {
		e := e
		if err := store.Upsert(ctx, &e); err != nil {
			t.Fatalf("Upsert %s: %v", e.ID, err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatePending] != 2 || stats[queue.StateComplete] != 1 || stats[queue.StateSkipped] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	removed, err := store.Remove(ctx, "p2")
	if err != nil || !removed {
		t.Fatalf("Remove p2: removed=%v err=%v", removed, err)
	}
	removed, err = store.Remove(ctx, "p2")
	if err != nil || removed {
		t.Fatalf("second Remove should report false, got removed=%v err=%v", removed, err)
	}

	cleared, err := store.ClearCompleted(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("ClearCompleted: cleared=%d err=%v", cleared, err)
	}

	stats, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatePending] != 1 || stats[queue.StateComplete] != 0 || stats[queue.StateSkipped] != 1 {
		t.Fatalf("unexpected stats after cleanup: %v", stats)
	}
}

func TestSaveAndGetFile(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	missing, err := store.GetFile(ctx, "vid")
	if err != nil || missing != nil {
		t.Fatalf("expected nil record, got %#v err=%v", missing, err)
	}

	record := queue.FileRecord{
		ID:            "vid",
		AuthorID:      "author",
		Filename:      "/storage/VIDEO_FILE/author/Title.mp4",
		FileExtension: "mp4",
		ContentLength: 1024,
	}
	if err := store.SaveFile(ctx, record); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	record.ContentLength = 2048
	if err := store.SaveFile(ctx, record); err != nil {
		t.Fatalf("SaveFile overwrite failed: %v", err)
	}

	fetched, err := store.GetFile(ctx, "vid")
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if fetched.Kind != queue.FileKindVideo || fetched.ContentLength != 2048 || fetched.FileExtension != "mp4" {
		t.Fatalf("unexpected record: %#v", fetched)
	}
	if fetched.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	if err := store.SaveFile(ctx, queue.FileRecord{ID: "x"}); err == nil {
		t.Fatal("expected error for missing filename")
	}
}

func TestConcurrentUpsertsSucceed(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- store.Upsert(ctx, &queue.Entry{ID: fmt.Sprintf("vid-%02d", n)})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent upsert failed: %v", err)
		}
	}

	list, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 20 {
		t.Fatalf("expected 20 entries, got %d", len(list))
	}
}

func ids(entries []*queue.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
