package logging

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestStreamHandlerCarriesLoggerAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	handler := newStreamHandler(slog.NewTextHandler(discardWriter{}, nil), hub)

	logger := slog.New(handler).
		With(slog.String(FieldComponent, "fetcher")).
		With(slog.String(FieldItemID, "abc")).
		With(slog.String(FieldStage, "probe"))
	logger.Info("probe finished", slog.String("title", "Cartoon"))

	events, _ := hub.Tail(10, nil)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.ItemID != "abc" || evt.Stage != "probe" || evt.Component != "fetcher" {
		t.Fatalf("unexpected event fields: %+v", evt)
	}
	if evt.Fields["title"] != "Cartoon" {
		t.Fatalf("expected title in fields, got %v", evt.Fields)
	}
}

func TestStreamHandlerCallSiteOverridesWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	handler := newStreamHandler(slog.NewTextHandler(discardWriter{}, nil), hub)

	logger := slog.New(handler).With(slog.String(FieldStage, "original"))
	logger.Info("message", slog.String(FieldStage, "overridden"))

	events, _ := hub.Tail(10, nil)
	if len(events) != 1 || events[0].Stage != "overridden" {
		t.Fatalf("expected overridden stage, got %+v", events)
	}
}

func TestStreamHandlerNilHub(t *testing.T) {
	base := slog.NewTextHandler(discardWriter{}, nil)
	if newStreamHandler(base, nil) != base {
		t.Fatal("expected base handler when hub is nil")
	}
}

func TestStreamHubEvictsOldest(t *testing.T) {
	hub := NewStreamHub(2)
	for _, msg := range []string{"a", "b", "c"} {
		hub.Publish(LogEvent{Message: msg})
	}
	events, next := hub.Tail(0, nil)
	if next != 3 {
		t.Fatalf("expected next sequence 3, got %d", next)
	}
	if len(events) != 2 || events[0].Message != "b" || events[1].Message != "c" {
		t.Fatalf("unexpected buffer contents: %+v", events)
	}
	if hub.FirstSequence() != 2 {
		t.Fatalf("expected first sequence 2, got %d", hub.FirstSequence())
	}
}

func TestStreamHubFetchSince(t *testing.T) {
	hub := NewStreamHub(10)
	hub.Publish(LogEvent{Message: "one"})
	hub.Publish(LogEvent{Message: "two"})

	events, next, err := hub.Fetch(context.Background(), 1, 10, false, nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(events) != 1 || events[0].Message != "two" || next != 2 {
		t.Fatalf("unexpected fetch result: %+v next=%d", events, next)
	}

	events, _, err = hub.Fetch(context.Background(), 2, 10, false, nil)
	if err != nil || len(events) != 0 {
		t.Fatalf("expected no events past the head, got %+v err=%v", events, err)
	}
}

func TestStreamHubFetchWaitsForPublish(t *testing.T) {
	hub := NewStreamHub(10)
	go func() {
		time.Sleep(20 * time.Millisecond)
		hub.Publish(LogEvent{Message: "late"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	events, _, err := hub.Fetch(ctx, 0, 10, true, nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(events) != 1 || events[0].Message != "late" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestStreamHubFetchHonoursCancellation(t *testing.T) {
	hub := NewStreamHub(10)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := hub.Fetch(ctx, 0, 10, true, nil); err == nil {
		t.Fatal("expected context error")
	}
}

func TestStreamHubFetchResumesAfterLimit(t *testing.T) {
	hub := NewStreamHub(10)
	for _, msg := range []string{"a", "b", "c"} {
		hub.Publish(LogEvent{Message: msg})
	}
	events, next, err := hub.Fetch(context.Background(), 0, 2, false, nil)
	if err != nil || len(events) != 2 {
		t.Fatalf("unexpected first batch: %+v err=%v", events, err)
	}
	if next != 2 {
		t.Fatalf("expected cursor 2 after truncated batch, got %d", next)
	}
	events, next, _ = hub.Fetch(context.Background(), next, 2, false, nil)
	if len(events) != 1 || events[0].Message != "c" || next != 3 {
		t.Fatalf("unexpected second batch: %+v next=%d", events, next)
	}
}

func TestStreamHubFilterAppliesBeforeLimit(t *testing.T) {
	hub := NewStreamHub(10)
	hub.Publish(LogEvent{Message: "one", ItemID: "abc", Component: "fetcher"})
	hub.Publish(LogEvent{Message: "two", ItemID: "xyz", Component: "fetcher"})
	hub.Publish(LogEvent{Message: "three", ItemID: "abc", Component: "workflow"})
	hub.Publish(LogEvent{Message: "four", ItemID: "xyz", Component: "workflow"})

	events, next := hub.Tail(1, MatchEvents("", "abc"))
	if len(events) != 1 || events[0].Message != "three" || next != 4 {
		t.Fatalf("unexpected filtered tail: %+v next=%d", events, next)
	}

	events, _, err := hub.Fetch(context.Background(), 0, 10, false, MatchEvents("FETCHER", "abc"))
	if err != nil || len(events) != 1 || events[0].Message != "one" {
		t.Fatalf("unexpected filtered fetch: %+v err=%v", events, err)
	}
}

func TestStreamHubFetchWaitsForMatchingEvent(t *testing.T) {
	hub := NewStreamHub(10)
	go func() {
		time.Sleep(20 * time.Millisecond)
		hub.Publish(LogEvent{Message: "other", ItemID: "xyz"})
		time.Sleep(20 * time.Millisecond)
		hub.Publish(LogEvent{Message: "wanted", ItemID: "abc"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	events, next, err := hub.Fetch(ctx, 0, 10, true, MatchEvents("", "abc"))
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(events) != 1 || events[0].Message != "wanted" || next != 2 {
		t.Fatalf("unexpected events: %+v next=%d", events, next)
	}
}

func TestMatchEventsEmptyIsNil(t *testing.T) {
	if MatchEvents(" ", "") != nil {
		t.Fatal("expected nil filter for empty criteria")
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
