package daemon

import (
	"context"
	"errors"

	"github.com/gbarton/yt4kids/internal/api"
	"github.com/gbarton/yt4kids/internal/logging"
)

const defaultLogLimit = 200

// LogQuery selects buffered log events.
type LogQuery struct {
	Since     uint64
	Limit     int
	Follow    bool
	Tail      bool
	ItemID    string
	Component string
}

// ReadLogs returns buffered events after q.Since. With Tail and no cursor it
// returns the most recent events; with Follow it blocks until a matching event
// arrives or ctx ends, which yields an empty batch rather than an error.
func (d *Daemon) ReadLogs(ctx context.Context, q LogQuery) (api.LogStreamResponse, error) {
	hub := d.logHub
	if hub == nil {
		return api.LogStreamResponse{Events: []api.LogEvent{}, Next: q.Since}, nil
	}
	if q.Limit <= 0 {
		q.Limit = defaultLogLimit
	}
	filter := logging.MatchEvents(q.Component, q.ItemID)

	if q.Tail && q.Since == 0 && !q.Follow {
		events, next := hub.Tail(q.Limit, filter)
		return api.LogStreamResponse{Events: api.FromLogEvents(events), Next: next}, nil
	}
	events, next, err := hub.Fetch(ctx, q.Since, q.Limit, q.Follow, filter)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return api.LogStreamResponse{}, err
	}
	return api.LogStreamResponse{Events: api.FromLogEvents(events), Next: next}, nil
}
