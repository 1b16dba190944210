package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/deps"
	"github.com/gbarton/yt4kids/internal/logging"
	"github.com/gbarton/yt4kids/internal/preflight"
)

const (
	logStreamCapacity = 4096
	// keepRunLogs run logs survive retention regardless of age.
	keepRunLogs   = 5
	runLogPattern = "yt4kids-*.log"
)

// runLogs are the sinks of one daemon run: stdout plus a per-run file, the
// in-memory hub behind /api/logs and, in diagnostic mode, a DEBUG JSON file.
type runLogs struct {
	logger    *slog.Logger
	hub       *logging.StreamHub
	path      string
	debugPath string
}

func runLogName(runID string) string {
	return strings.Replace(runLogPattern, "*", runID, 1)
}

func openRunLogs(cfg *config.Config, opts Options, runID, sessionID string) (*runLogs, error) {
	logs := &runLogs{
		hub:  logging.NewStreamHub(logStreamCapacity),
		path: filepath.Join(cfg.Paths.LogDir, runLogName(runID)),
	}
	logger, err := logging.New(logging.Options{
		Level:       firstNonEmpty(opts.LogLevel, cfg.Logging.Level),
		Format:      firstNonEmpty(opts.LogFormat, cfg.Logging.Format),
		Outputs:     []string{"stdout", logs.path},
		Development: opts.Development,
		Stream:      logs.hub,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logs.logger = logger.With(logging.String("session_id", sessionID))
	linkCurrentLog(cfg.Paths.LogDir, logs.path)

	if opts.Diagnostic {
		if err := logs.addDebugSink(filepath.Join(cfg.Paths.LogDir, "debug"), runID); err != nil {
			return nil, err
		}
	}
	return logs, nil
}

// addDebugSink tees every record at DEBUG into debug/yt4kids-<run>.log. A
// sink that cannot be opened is reported and skipped.
func (l *runLogs) addDebugSink(dir, runID string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create debug log directory: %w", err)
	}
	path := filepath.Join(dir, runLogName(runID))
	debug, err := logging.New(logging.Options{Level: "debug", Format: "json", Outputs: []string{path}, Development: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", err)
		return nil
	}
	l.logger = logging.TeeLogger(l.logger, debug.Handler())
	l.debugPath = path
	linkCurrentLog(dir, path)
	l.logger.Info("diagnostic mode enabled",
		logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
		logging.String("debug_log_path", path),
	)
	return nil
}

// prune applies logging.retention_days to earlier run logs, always keeping
// the newest few and the files of this run.
func (l *runLogs) prune(cfg *config.Config) {
	logging.CleanupOldLogs(l.logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: runLogPattern, Exclude: []string{l.path}, KeepNewest: keepRunLogs},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, "debug"), Pattern: runLogPattern, Exclude: []string{l.debugPath}, KeepNewest: keepRunLogs},
	)
}

func linkCurrentLog(dir, target string) {
	if err := ensureCurrentLogPointer(dir, target); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s: %v\n", filepath.Join(dir, "yt4kids.log"), err)
	}
}

// logDependencySnapshot records which binaries and integrations this run
// starts with. Missing required binaries log at WARN.
func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	statuses := preflight.CheckSystemDeps(ctx, cfg)
	attrs := []logging.Attr{
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("redis_configured", strings.TrimSpace(cfg.Notifications.RedisAddr) != ""),
		logging.Bool("api_enabled", strings.TrimSpace(cfg.Paths.APIBind) != ""),
	}
	for _, status := range statuses {
		key := strings.ToLower(strings.ReplaceAll(status.Name, "-", ""))
		attrs = append(attrs,
			logging.Bool(key+"_available", status.Available),
			logging.String(key+"_binary", status.Command),
		)
	}
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		attrs = append(attrs, logging.String("missing_required", strings.Join(missing, ", ")))
		logging.WarnWithContext(logger, "dependency snapshot", "dependency_snapshot", attrs...)
		return
	}
	logger.Info("dependency snapshot", logging.Args(append(attrs, logging.String(logging.FieldEventType, "dependency_snapshot"))...)...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
