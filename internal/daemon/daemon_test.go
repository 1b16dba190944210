package daemon_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/daemon"
	"github.com/gbarton/yt4kids/internal/queue"
	"github.com/gbarton/yt4kids/internal/testsupport"
	"github.com/gbarton/yt4kids/internal/workflow"
)

type stubFetcher struct {
	calls atomic.Int32
	err   error
}

func (f *stubFetcher) Fetch(_ context.Context, videoID, authorID string) (*queue.FileRecord, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &queue.FileRecord{ID: videoID, AuthorID: authorID, Filename: videoID + ".mp4", FileExtension: "mp4", Kind: queue.FileKindVideo}, nil
}

func newDaemon(t *testing.T, cfg *config.Config, fetcher workflow.Fetcher) *daemon.Daemon {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, fetcher, nil)
	d, err := daemon.New(cfg, store, nil, mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPollInterval(60000))
	d := newDaemon(t, cfg, &stubFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running || !status.Manager.Running {
		t.Fatalf("expected daemon and manager running: %+v", status)
	}
	if status.QueueDBPath != cfg.QueueDBPath() {
		t.Fatalf("QueueDBPath = %q, want %q", status.QueueDBPath, cfg.QueueDBPath())
	}
	if len(status.Dependencies) != 3 {
		t.Fatalf("expected 3 dependency reports, got %d", len(status.Dependencies))
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running || status.Manager.Running {
		t.Fatal("expected daemon to be stopped")
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart after stop failed: %v", err)
	}
}

func TestSecondInstanceIsLockedOut(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPollInterval(60000))
	first := newDaemon(t, cfg, &stubFetcher{})
	second := newDaemon(t, cfg, &stubFetcher{})

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		t.Fatal("expected lock contention error")
	}
	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
}

func TestQueueDelegations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg, &stubFetcher{})
	ctx := context.Background()

	entry, err := d.Enqueue(ctx, " vid1 ", "author", "Dino Songs")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if entry.ID != "vid1" || entry.State() != queue.StatePending {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	skipped, err := d.ToggleSkip(ctx, "vid1")
	if err != nil || !skipped.Skip {
		t.Fatalf("ToggleSkip = %+v, %v", skipped, err)
	}
	if _, err := d.ToggleSkip(ctx, "missing"); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	stats, err := d.QueueStats(ctx)
	if err != nil || stats[queue.StateSkipped] != 1 {
		t.Fatalf("QueueStats = %+v, %v", stats, err)
	}

	removed, err := d.Remove(ctx, "vid1")
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	removed, err = d.Remove(ctx, "vid1")
	if err != nil || removed {
		t.Fatalf("second Remove = %v, %v", removed, err)
	}
	got, err := d.GetEntry(ctx, "vid1")
	if err != nil || got != nil {
		t.Fatalf("GetEntry after remove = %+v, %v", got, err)
	}
}

func TestTickNowDownloadsAndClearCompleted(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPollInterval(60000))
	fetcher := &stubFetcher{}
	d := newDaemon(t, cfg, fetcher)
	ctx := context.Background()

	if _, err := d.Enqueue(ctx, "vid1", "author", "Dino Songs"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	result := d.TickNow(ctx)
	if result.Outcome != workflow.TickCompleted || result.EntryID != "vid1" {
		t.Fatalf("TickNow = %+v", result)
	}
	if again := d.TickNow(ctx); again.Outcome != workflow.TickBusy {
		t.Fatalf("expected cooldown to drop the second tick, got %+v", again)
	}
	if fetcher.calls.Load() != 1 {
		t.Fatalf("fetch calls = %d, want 1", fetcher.calls.Load())
	}

	removed, err := d.ClearCompleted(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("ClearCompleted = %d, %v", removed, err)
	}
}

func TestTestNotificationWithoutChannels(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	cfg.Notifications.RedisAddr = ""
	d := newDaemon(t, cfg, &stubFetcher{})

	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent || message != "notifications not configured" {
		t.Fatalf("unexpected result: sent=%v message=%q", sent, message)
	}
}
