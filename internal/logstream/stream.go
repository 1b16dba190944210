package logstream

import (
	"context"
	"errors"
	"fmt"

	"github.com/gbarton/yt4kids/internal/api"
	"github.com/gbarton/yt4kids/internal/ipc"
	"github.com/gbarton/yt4kids/internal/logs"
)

const (
	followBatch      = 200
	ipcFollowWaitMS  = 1000
	defaultTailLines = 200
)

// TailClient is the IPC half of the stream, used when the HTTP API is off.
type TailClient interface {
	LogTail(req ipc.LogTailRequest) (*ipc.LogTailResponse, error)
}

// Filters are evaluated by the daemon before the line limit.
type Filters struct {
	Component string
	ItemID    string
}

// Options controls stream behavior.
type Options struct {
	Lines   int
	Follow  bool
	Filters Filters
}

// cursor is the position for one poll. The first poll tails the newest
// lines; every later poll resumes from the returned sequence.
type cursor struct {
	since  uint64
	limit  int
	follow bool
}

type poller interface {
	poll(ctx context.Context, at cursor) ([]api.LogEvent, uint64, error)
}

// Stream emits log events from the HTTP API when available, falling back to
// IPC. It returns true when at least one event was emitted.
func Stream(
	ctx context.Context,
	apiClient *logs.StreamClient,
	fallback TailClient,
	opts Options,
	onEvent func(api.LogEvent),
) (bool, error) {
	printed, err := run(ctx, httpPoller{client: apiClient, filters: opts.Filters}, opts, onEvent)
	if err == nil || printed || !logs.IsAPIUnavailable(err) {
		return printed, err
	}
	if fallback == nil {
		return false, logs.ErrAPIUnavailable
	}
	return run(ctx, ipcPoller{client: fallback, filters: opts.Filters}, opts, onEvent)
}

func run(ctx context.Context, p poller, opts Options, onEvent func(api.LogEvent)) (bool, error) {
	at := cursor{limit: opts.Lines}
	if at.limit <= 0 {
		at.limit = defaultTailLines
	}
	printed := false
	for {
		events, next, err := p.poll(ctx, at)
		if err != nil {
			// An interrupted follow is a normal exit once output has started.
			if printed && ctx.Err() != nil {
				return true, nil
			}
			return printed, err
		}
		if onEvent != nil {
			for _, evt := range events {
				onEvent(evt)
			}
		}
		printed = printed || len(events) > 0
		if !opts.Follow || ctx.Err() != nil {
			return printed, nil
		}
		at = cursor{since: next, limit: followBatch, follow: true}
	}
}

type httpPoller struct {
	client  *logs.StreamClient
	filters Filters
}

func (p httpPoller) poll(ctx context.Context, at cursor) ([]api.LogEvent, uint64, error) {
	resp, err := p.client.Fetch(ctx, logs.StreamQuery{
		Since:     at.since,
		Limit:     at.limit,
		Follow:    at.follow,
		Tail:      !at.follow,
		Component: p.filters.Component,
		ItemID:    p.filters.ItemID,
	})
	return resp.Events, resp.Next, err
}

type ipcPoller struct {
	client  TailClient
	filters Filters
}

func (p ipcPoller) poll(_ context.Context, at cursor) ([]api.LogEvent, uint64, error) {
	req := ipc.LogTailRequest{
		Since:     at.since,
		Limit:     at.limit,
		Follow:    at.follow,
		Component: p.filters.Component,
		ItemID:    p.filters.ItemID,
	}
	if at.follow {
		req.WaitMillis = ipcFollowWaitMS
	}
	resp, err := p.client.LogTail(req)
	if err != nil {
		return nil, 0, fmt.Errorf("tail logs: %w", err)
	}
	if resp == nil {
		return nil, 0, errors.New("log tail response missing")
	}
	return resp.Events, resp.Next, nil
}
