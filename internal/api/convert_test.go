package api

import (
	"errors"
	"testing"
	"time"

	"github.com/gbarton/yt4kids/internal/deps"
	"github.com/gbarton/yt4kids/internal/logging"
	"github.com/gbarton/yt4kids/internal/preflight"
	"github.com/gbarton/yt4kids/internal/queue"
	"github.com/gbarton/yt4kids/internal/workflow"
)

func TestFromEntry(t *testing.T) {
	requested := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	entry := &queue.Entry{
		ID:          "vid1",
		AuthorID:    "author",
		Title:       "Dino Songs",
		RequestedAt: requested,
		Skip:        true,
		Attempts:    10,
		LastError:   "boom",
	}

	dto := FromEntry(entry)
	if dto.State != "skipped" {
		t.Fatalf("State = %q, want skipped", dto.State)
	}
	if dto.RequestedAt != "2024-05-01T08:00:00.000Z" {
		t.Fatalf("RequestedAt = %q", dto.RequestedAt)
	}
	if dto.UpdatedAt != "" {
		t.Fatalf("zero UpdatedAt should be empty, got %q", dto.UpdatedAt)
	}
	if dto.Attempts != 10 || dto.LastError != "boom" || !dto.Skip {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if got := FromEntry(nil); got.ID != "" {
		t.Fatalf("nil entry = %+v", got)
	}
}

func TestFromEntriesSkipsNil(t *testing.T) {
	out := FromEntries([]*queue.Entry{{ID: "a"}, nil, {ID: "b", Complete: true}})
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[1].State != "complete" {
		t.Fatalf("State = %q, want complete", out[1].State)
	}
	if FromEntries(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestFromStatusSummary(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:      true,
		Busy:         true,
		LastError:    "timeout",
		LastOutcome:  workflow.TickFailed,
		LastEntry:    &queue.Entry{ID: "vid1", Attempts: 2},
		PollInterval: 1500 * time.Millisecond,
		MaxAttempts:  3,
	}

	status := FromStatusSummary(summary, map[queue.State]int{queue.StatePending: 4})
	if !status.Running || !status.Busy {
		t.Fatalf("unexpected flags: %+v", status)
	}
	if status.LastOutcome != "failed" {
		t.Fatalf("LastOutcome = %q", status.LastOutcome)
	}
	if status.PollIntervalMS != 1500 {
		t.Fatalf("PollIntervalMS = %d", status.PollIntervalMS)
	}
	if status.LastEntry == nil || status.LastEntry.ID != "vid1" {
		t.Fatalf("LastEntry = %+v", status.LastEntry)
	}
	if status.QueueStats["pending"] != 4 || status.QueueStats["complete"] != 0 || status.QueueStats["skipped"] != 0 {
		t.Fatalf("QueueStats = %+v", status.QueueStats)
	}
	if status.CooldownUntil != "" {
		t.Fatalf("zero cooldown should be empty, got %q", status.CooldownUntil)
	}
}

func TestFromTickResult(t *testing.T) {
	resp := FromTickResult(workflow.TickResult{Outcome: workflow.TickSkipped, EntryID: "vid1", Attempts: 3, Err: errors.New("gone")})
	if resp.Outcome != "skipped" || resp.EntryID != "vid1" || resp.Attempts != 3 || resp.Error != "gone" {
		t.Fatalf("unexpected tick response: %+v", resp)
	}
}

func TestFromDependencyStatusesAndDiskUsage(t *testing.T) {
	out := FromDependencyStatuses([]deps.Status{{Name: "yt-dlp", Command: "yt-dlp", Available: false, Detail: "missing"}})
	if len(out) != 1 || out[0].Name != "yt-dlp" || out[0].Available || out[0].Detail != "missing" || out[0].Severity != "error" {
		t.Fatalf("unexpected dependencies: %+v", out)
	}

	if FromDiskUsage(preflight.DiskUsage{}) != nil {
		t.Fatal("expected nil storage status for empty usage")
	}
	storage := FromDiskUsage(preflight.DiskUsage{Path: "/data", Err: errors.New("no such volume")})
	if storage == nil || storage.Error != "no such volume" {
		t.Fatalf("unexpected storage status: %+v", storage)
	}
}

func TestFromLogEvents(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	out := FromLogEvents([]logging.LogEvent{{Sequence: 7, Timestamp: ts, Level: "INFO", Message: "downloaded", ItemID: "vid1"}})
	if len(out) != 1 {
		t.Fatalf("len = %d", len(out))
	}
	if out[0].Sequence != 7 || out[0].ItemID != "vid1" || out[0].Timestamp != "2024-05-01T10:00:00.000Z" {
		t.Fatalf("unexpected event: %+v", out[0])
	}
}
