package services

import "context"

type contextKey string

const (
	itemIDKey    contextKey = "item_id"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

// Empty values are never stored, so lookups only report annotations that
// carry something.
func with(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key contextKey) (string, bool) {
	value, _ := ctx.Value(key).(string)
	return value, value != ""
}

// WithItemID tags ctx with the video id of the entry being processed.
func WithItemID(ctx context.Context, id string) context.Context { return with(ctx, itemIDKey, id) }

// ItemIDFromContext returns the video id set by WithItemID.
func ItemIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, itemIDKey) }

// WithStage tags ctx with the fetcher stage (probe, download, mux, verify).
func WithStage(ctx context.Context, stage string) context.Context {
	return with(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return lookup(ctx, stageKey) }

// WithRequestID tags ctx with the correlation id of one attempt.
func WithRequestID(ctx context.Context, id string) context.Context {
	return with(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, requestIDKey) }
