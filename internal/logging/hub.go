package logging

import (
	"context"
	"strings"
	"sync"
	"time"
)

const defaultHubCapacity = 512

// LogEvent represents a structured log line published to the streaming hub.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	Stage         string            `json:"stage,omitempty"`
	ItemID        string            `json:"item_id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// EventFilter selects events returned by Fetch and Tail. A nil filter matches everything.
type EventFilter func(LogEvent) bool

// MatchEvents returns a filter on item id and component (case-insensitive).
// It returns nil when both are empty.
func MatchEvents(component, itemID string) EventFilter {
	component = strings.TrimSpace(component)
	itemID = strings.TrimSpace(itemID)
	if component == "" && itemID == "" {
		return nil
	}
	return func(evt LogEvent) bool {
		if itemID != "" && evt.ItemID != itemID {
			return false
		}
		return component == "" || strings.EqualFold(evt.Component, component)
	}
}

func (f EventFilter) match(evt LogEvent) bool {
	return f == nil || f(evt)
}

// StreamHub is a fixed-size ring of recent log events. Readers poll by
// sequence number and may block until a matching event is published.
type StreamHub struct {
	mu      sync.Mutex
	cond    *sync.Cond
	ring    []LogEvent
	head    int
	size    int
	nextSeq uint64
}

// NewStreamHub constructs a hub holding at most capacity events.
func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = defaultHubCapacity
	}
	h := &StreamHub{ring: make([]LogEvent, capacity)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish stamps evt with the next sequence number and stores it, overwriting
// the oldest event when the ring is full.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if h.size < len(h.ring) {
		h.ring[(h.head+h.size)%len(h.ring)] = evt
		h.size++
	} else {
		h.ring[h.head] = evt
		h.head = (h.head + 1) % len(h.ring)
	}
	h.cond.Broadcast()
}

// Fetch returns up to limit matching events with a sequence greater than
// since, plus the cursor for the next call. When wait is set and nothing
// matches, Fetch blocks until a matching event arrives or ctx ends.
func (h *StreamHub) Fetch(ctx context.Context, since uint64, limit int, wait bool, filter EventFilter) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	limit = h.clampLimit(limit)

	if wait && ctx != nil && ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			h.mu.Lock()
			h.cond.Broadcast()
			h.mu.Unlock()
		})
		defer stop()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		events, next := h.collectLocked(since, limit, filter)
		if len(events) > 0 || !wait {
			return events, next, nil
		}
		// Nothing up to next matched; skip it on the next scan.
		since = next
		if ctx != nil && ctx.Err() != nil {
			return nil, next, ctx.Err()
		}
		h.cond.Wait()
	}
}

// Tail returns the newest limit matching events in publish order, along with
// the cursor for a subsequent Fetch.
func (h *StreamHub) Tail(limit int, filter EventFilter) ([]LogEvent, uint64) {
	if h == nil {
		return nil, 0
	}
	limit = h.clampLimit(limit)
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []LogEvent
	for i := h.size - 1; i >= 0 && len(out) < limit; i-- {
		if evt := h.at(i); filter.match(evt) {
			out = append(out, evt)
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out, h.nextSeq
}

// FirstSequence reports the smallest sequence number still buffered.
func (h *StreamHub) FirstSequence() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.size == 0 {
		return h.nextSeq
	}
	return h.at(0).Sequence
}

func (h *StreamHub) clampLimit(limit int) int {
	if limit <= 0 || limit > len(h.ring) {
		return len(h.ring)
	}
	return limit
}

func (h *StreamHub) at(i int) LogEvent {
	return h.ring[(h.head+i)%len(h.ring)]
}

// collectLocked returns the cursor of the last returned event when limit cuts
// the batch short, so the caller resumes where it stopped.
func (h *StreamHub) collectLocked(since uint64, limit int, filter EventFilter) ([]LogEvent, uint64) {
	var out []LogEvent
	for i := 0; i < h.size; i++ {
		evt := h.at(i)
		if evt.Sequence <= since || !filter.match(evt) {
			continue
		}
		if len(out) == limit {
			return out, out[len(out)-1].Sequence
		}
		out = append(out, evt)
	}
	return out, h.nextSeq
}
