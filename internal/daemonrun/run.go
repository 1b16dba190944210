package daemonrun

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/daemon"
	"github.com/gbarton/yt4kids/internal/fetcher"
	"github.com/gbarton/yt4kids/internal/ipc"
	"github.com/gbarton/yt4kids/internal/logging"
	"github.com/gbarton/yt4kids/internal/notifications"
	"github.com/gbarton/yt4kids/internal/preflight"
	"github.com/gbarton/yt4kids/internal/queue"
	"github.com/gbarton/yt4kids/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	LogFormat   string
	Development bool
	Diagnostic  bool
}

// Run starts the yt4kids daemon runtime loop and blocks until SIGINT, SIGTERM,
// or cmdCtx cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logs, err := openRunLogs(cfg, opts, runID, uuid.NewString())
	if err != nil {
		return err
	}
	logger := logs.logger
	logDependencySnapshot(signalCtx, logger, cfg)
	logs.prune(cfg)

	removePID, err := writePIDFile(cfg.PIDPath())
	if err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer removePID()

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	pipeline := fetcher.New(cfg, store, logger)
	manager := workflow.NewManager(cfg, store, pipeline, logger,
		workflow.WithNotifier(notifier),
		workflow.WithPreflight(preflight.RunAll),
	)

	d, err := daemon.New(cfg, store, logger, manager,
		daemon.WithLogStream(logs.hub),
		daemon.WithNotifier(notifier),
		daemon.WithLogPath(logs.path),
	)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.StartAPI(signalCtx); err != nil {
		logging.WarnWithContext(logger, "api server start failed", "api_start_failed",
			logging.Error(err),
			logging.String("bind", cfg.Paths.APIBind),
			logging.String(logging.FieldImpact, "HTTP API and log streaming unavailable; IPC still works"),
			logging.String(logging.FieldErrorHint, "check paths.api_bind for port conflicts"),
		)
	}

	if err := d.Start(signalCtx); err != nil {
		logging.WarnWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check configuration and queue database access"),
			logging.String(logging.FieldImpact, "daemon may not process queue entries"),
		)
	}

	<-signalCtx.Done()
	logger.Info("yt4kids daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}
