package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler sends each record to every branch whose level admits it. The
// daemon uses it to mirror the console into the run log and the diagnostic
// debug log.
type teeHandler struct {
	branches []slog.Handler
}

func newTeeHandler(handlers ...slog.Handler) slog.Handler {
	branches := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			branches = append(branches, h)
		}
	}
	switch len(branches) {
	case 0:
		return NoopHandler{}
	case 1:
		return branches[0]
	}
	return &teeHandler{branches: branches}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, branch := range h.branches {
		if branch.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, branch := range h.branches {
		if !branch.Enabled(ctx, record.Level) {
			continue
		}
		// Handlers may retain the record, so each branch gets its own copy.
		if err := branch.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(branch slog.Handler) slog.Handler { return branch.WithAttrs(attrs) })
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(branch slog.Handler) slog.Handler { return branch.WithGroup(name) })
}

func (h *teeHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, len(h.branches))
	for i, branch := range h.branches {
		next[i] = fn(branch)
	}
	return &teeHandler{branches: next}
}

// TeeLogger returns a logger writing to base and every extra handler.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	if base == nil {
		return slog.New(newTeeHandler(handlers...))
	}
	return slog.New(newTeeHandler(append([]slog.Handler{base.Handler()}, handlers...)...))
}
