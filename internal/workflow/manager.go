package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/logging"
	"github.com/gbarton/yt4kids/internal/notifications"
	"github.com/gbarton/yt4kids/internal/preflight"
	"github.com/gbarton/yt4kids/internal/queue"
)

// PreflightFunc reports readiness checks run before each download attempt.
type PreflightFunc func(ctx context.Context, cfg *config.Config) []preflight.Result

// Manager serialises download attempts over the queue.
type Manager struct {
	cfg          *config.Config
	store        QueueStore
	fetcher      Fetcher
	notifier     notifications.Service
	preflight    PreflightFunc
	logger       *slog.Logger
	pollInterval time.Duration
	maxAttempts  int
	batchSize    int
	now          func() time.Time

	// slot is the busy guard: holding its single token means Downloading.
	slot chan struct{}

	mu             sync.RWMutex
	running        bool
	cancel         context.CancelCauseFunc
	wg             sync.WaitGroup
	inflight       context.CancelCauseFunc
	cooldown       *time.Timer
	pendingRelease func()
	cooldownUntil  time.Time
	lastErr        error
	lastEntry      *queue.Entry
	lastOutcome    Outcome
	lastAttemptAt  time.Time
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithNotifier publishes attempt outcomes to notifier.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) { m.notifier = notifier }
}

// WithPreflight gates each attempt on the given checks.
func WithPreflight(check PreflightFunc) ManagerOption {
	return func(m *Manager) { m.preflight = check }
}

// WithClock overrides the time source used for UpdatedAt and status fields.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a manager. Settings are read from cfg once.
func NewManager(cfg *config.Config, store QueueStore, fetcher Fetcher, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:          cfg,
		store:        store,
		fetcher:      fetcher,
		logger:       logging.NewComponentLogger(logger, "queue-manager"),
		pollInterval: cfg.PollInterval(),
		maxAttempts:  cfg.Manager.MaxAttempts,
		batchSize:    cfg.Manager.BatchSize,
		now:          time.Now,
		slot:         make(chan struct{}, 1),
	}
	if m.batchSize <= 0 {
		m.batchSize = 1
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
