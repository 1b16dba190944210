package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/deps"
	"github.com/gbarton/yt4kids/internal/logging"
	"github.com/gbarton/yt4kids/internal/notifications"
	"github.com/gbarton/yt4kids/internal/preflight"
	"github.com/gbarton/yt4kids/internal/queue"
	"github.com/gbarton/yt4kids/internal/workflow"
)

// Daemon coordinates the queue manager and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	root     *slog.Logger
	logger   *slog.Logger
	store    *queue.Store
	manager  *workflow.Manager
	notifier notifications.Service
	logHub   *logging.StreamHub
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc

	api *apiServer
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Manager      workflow.StatusSummary
	QueueStats   map[queue.State]int
	QueueDBPath  string
	LockFilePath string
	StorageDir   string
	Storage      preflight.DiskUsage
	Dependencies []deps.Status
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithLogStream exposes the hub through /api/logs.
func WithLogStream(hub *logging.StreamHub) Option {
	return func(d *Daemon) { d.logHub = hub }
}

// WithNotifier sets the service used by TestNotification.
func WithNotifier(svc notifications.Service) Option {
	return func(d *Daemon) { d.notifier = svc }
}

// WithLogPath records the active run log for status output.
func WithLogPath(path string) Option {
	return func(d *Daemon) { d.logPath = path }
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, mgr *workflow.Manager, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || mgr == nil {
		return nil, errors.New("daemon requires config, store, and queue manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		root:     logger,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		manager:  mgr,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.notifier == nil {
		d.notifier = notifications.NewService(cfg)
	}
	return d, nil
}

// Start acquires the daemon lock and launches the queue manager.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another yt4kids daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.manager.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start queue manager: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("yt4kids daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop stops the queue manager and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.manager.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next daemon start may report another instance"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("yt4kids daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops processing and the HTTP API, then releases the queue store.
func (d *Daemon) Close() error {
	d.Stop()
	d.StopAPI()
	if err := notifications.Close(d.notifier); err != nil {
		d.logger.Debug("notifier close failed", logging.Error(err))
	}
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the queue manager is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// ListQueue returns up to limit entries, newest request first.
func (d *Daemon) ListQueue(ctx context.Context, limit int) ([]*queue.Entry, error) {
	return d.store.List(ctx, limit)
}

// GetEntry returns a single entry or nil when it does not exist.
func (d *Daemon) GetEntry(ctx context.Context, id string) (*queue.Entry, error) {
	return d.store.Get(ctx, strings.TrimSpace(id))
}

// GetFile returns the file record of a downloaded video.
func (d *Daemon) GetFile(ctx context.Context, id string) (*queue.FileRecord, error) {
	return d.store.GetFile(ctx, strings.TrimSpace(id))
}

// QueueStats returns per-state counts.
func (d *Daemon) QueueStats(ctx context.Context) (map[queue.State]int, error) {
	return d.store.Stats(ctx)
}

// Enqueue requests a download. Re-enqueueing resets an existing entry.
func (d *Daemon) Enqueue(ctx context.Context, id, authorID, title string) (*queue.Entry, error) {
	entry, err := d.store.Enqueue(ctx, id, authorID, title)
	if err != nil {
		return nil, err
	}
	d.logger.Info("entry queued",
		logging.String(logging.FieldItemID, entry.ID),
		logging.String(logging.FieldEventType, "entry_queued"),
		logging.String("title", entry.Title),
	)
	return entry, nil
}

// ToggleSkip flips the skip flag of an entry.
func (d *Daemon) ToggleSkip(ctx context.Context, id string) (*queue.Entry, error) {
	entry, err := d.store.ToggleSkip(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	d.logger.Info("entry skip toggled",
		logging.String(logging.FieldItemID, entry.ID),
		logging.String(logging.FieldEventType, "entry_skip_toggled"),
		logging.Bool("skip", entry.Skip),
	)
	return entry, nil
}

// Remove deletes an entry. It reports false when the entry did not exist.
func (d *Daemon) Remove(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	removed, err := d.store.Remove(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		d.logger.Info("entry removed",
			logging.String(logging.FieldItemID, id),
			logging.String(logging.FieldEventType, "entry_removed"),
		)
	}
	return removed, nil
}

// ClearCompleted removes completed entries.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	removed, err := d.store.ClearCompleted(ctx)
	if err != nil {
		return 0, err
	}
	d.logger.Info("completed entries cleared",
		logging.String(logging.FieldEventType, "queue_clear_completed"),
		logging.Int64("removed_count", removed),
	)
	return removed, nil
}

// TickNow runs one manager tick immediately. It honours the busy slot, so a
// tick during a download or cooldown is dropped.
func (d *Daemon) TickNow(ctx context.Context) workflow.TickResult {
	d.mu.Lock()
	runCtx := d.ctx
	d.mu.Unlock()
	if runCtx == nil {
		runCtx = ctx
	}
	return d.manager.Tick(runCtx)
}

// TestNotification publishes a test event through every configured channel.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	n := d.cfg.Notifications
	if strings.TrimSpace(n.NtfyTopic) == "" && strings.TrimSpace(n.RedisAddr) == "" {
		return false, "notifications not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTestNotification, notifications.Payload{}); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogStream returns the in-memory log hub, if any.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.logHub
}

// LogPath returns the path to the active run log.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Debug("queue stats unavailable", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Manager:      d.manager.Status(),
		QueueStats:   stats,
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		StorageDir:   d.cfg.Paths.StorageDir,
		Storage:      preflight.StorageUsage(d.cfg.Paths.StorageDir),
		Dependencies: preflight.CheckSystemDeps(ctx, d.cfg),
	}
}
