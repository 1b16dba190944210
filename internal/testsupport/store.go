package testsupport

import (
	"context"
	"testing"

	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustEnqueue adds a download request for tests using the provided store.
func MustEnqueue(t testing.TB, store *queue.Store, id, authorID, title string) *queue.Entry {
	t.Helper()

	entry, err := store.Enqueue(context.Background(), id, authorID, title)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return entry
}
