package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gbarton/yt4kids/internal/api"
	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/ipc"
	"github.com/gbarton/yt4kids/internal/preflight"
	"github.com/gbarton/yt4kids/internal/queue"
)

// StatusSnapshot combines daemon status with locally evaluated health checks.
type StatusSnapshot struct {
	api.DaemonStatus
	Reachable         bool                  `json:"reachable"`
	SystemChecks      []api.StatusLine      `json:"systemChecks"`
	Paths             []api.StatusLine      `json:"paths"`
	DependencySummary api.DependencySummary `json:"dependencySummary"`
}

// BuildStatusSnapshot collects daemon status and applies offline fallbacks
// for queue stats, storage, and dependencies.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config) (*StatusSnapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snapshot := &StatusSnapshot{}

	client, err := ipc.Dial(socketPath)
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			snapshot.DaemonStatus = *resp
			snapshot.Reachable = true
		}
	}

	if !snapshot.Reachable {
		queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		snapshot.QueueDBPath = cfg.QueueDBPath()
		snapshot.LockFilePath = cfg.LockPath()
		snapshot.StorageDir = cfg.Paths.StorageDir
		snapshot.Manager.PollIntervalMS = int64(cfg.Manager.PollIntervalMS)
		snapshot.Manager.MaxAttempts = cfg.Manager.MaxAttempts
		snapshot.Manager.QueueStats = api.MergeQueueStats(nil)

		store, openErr := queue.Open(cfg)
		if openErr == nil {
			stats, statsErr := store.Stats(queryCtx)
			_ = store.Close()
			if statsErr == nil {
				snapshot.Manager.QueueStats = api.MergeQueueStats(stats)
			}
		}
		snapshot.Storage = api.FromDiskUsage(preflight.StorageUsage(cfg.Paths.StorageDir))
	}

	if len(snapshot.Dependencies) == 0 {
		snapshot.Dependencies = ResolveDependencies(ctx, cfg)
	}
	for i := range snapshot.Dependencies {
		if strings.TrimSpace(snapshot.Dependencies[i].Severity) == "" {
			dep := snapshot.Dependencies[i]
			snapshot.Dependencies[i].Severity = api.DependencySeverity(dep.Available, dep.Optional)
		}
	}

	snapshot.SystemChecks = BuildSystemChecks(ctx, cfg, snapshot.DaemonStatus)
	snapshot.Paths = BuildPathChecks(cfg)
	snapshot.DependencySummary = BuildDependencySummary(snapshot.Dependencies)
	return snapshot, nil
}

// ResolveDependencies returns current dependency availability for status output.
func ResolveDependencies(ctx context.Context, cfg *config.Config) []api.DependencyStatus {
	if cfg == nil {
		return nil
	}
	return api.FromDependencyStatuses(preflight.CheckSystemDeps(ctx, cfg))
}

// BuildSystemChecks resolves status lines that combine runtime state and config checks.
func BuildSystemChecks(ctx context.Context, cfg *config.Config, status api.DaemonStatus) []api.StatusLine {
	lines := make([]api.StatusLine, 0, 6)
	if status.Running {
		lines = append(lines, api.StatusLine{Label: "yt4kids", Severity: "ok", Detail: fmt.Sprintf("Running (pid %d)", status.PID)})
		lines = append(lines, managerLine(status.Manager))
	} else if status.PID > 0 {
		lines = append(lines, api.StatusLine{Label: "yt4kids", Severity: "warn", Detail: "Daemon up, downloads paused (run `yt4kids start`)"})
	} else {
		lines = append(lines, api.StatusLine{Label: "yt4kids", Severity: "warn", Detail: "Not running (run `yt4kids start`)"})
	}

	if status.Storage != nil {
		lines = append(lines, storageLine(status.Storage))
	}

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		lines = append(lines, api.StatusLine{Label: "Notifications", Severity: "ok", Detail: "ntfy configured"})
	} else {
		lines = append(lines, api.StatusLine{Label: "Notifications", Severity: "warn", Detail: "Not configured"})
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	redisCheck := preflight.CheckRedis(checkCtx, cfg.Notifications)
	switch {
	case redisCheck.Passed && strings.EqualFold(redisCheck.Detail, "Disabled"):
		lines = append(lines, api.StatusLine{Label: "Redis", Severity: "info", Detail: redisCheck.Detail})
	case redisCheck.Passed:
		lines = append(lines, api.StatusLine{Label: "Redis", Severity: "ok", Detail: redisCheck.Detail})
	default:
		lines = append(lines, api.StatusLine{Label: "Redis", Severity: "warn", Detail: redisCheck.Detail})
	}

	if bind := strings.TrimSpace(cfg.Paths.APIBind); bind != "" {
		lines = append(lines, api.StatusLine{Label: "HTTP API", Severity: "info", Detail: bind})
	} else {
		lines = append(lines, api.StatusLine{Label: "HTTP API", Severity: "info", Detail: "Disabled"})
	}
	return lines
}

func managerLine(m api.ManagerStatus) api.StatusLine {
	line := api.StatusLine{Label: "Manager", Severity: "ok", Detail: "Idle"}
	switch {
	case m.Busy && m.CooldownUntil != "":
		line.Detail = "Cooling down until " + m.CooldownUntil
	case m.Busy:
		line.Detail = "Downloading"
		if m.LastEntry != nil {
			line.Detail = "Downloading " + m.LastEntry.DisplayName()
		}
	}
	if m.LastError != "" {
		line.Severity = "warn"
		line.Detail += " (last error: " + m.LastError + ")"
	}
	return line
}

func storageLine(s *api.StorageStatus) api.StatusLine {
	usage := preflight.DiskUsage{Path: s.Path, Total: s.TotalBytes, Free: s.FreeBytes, UsedPercent: s.UsedPercent}
	if s.Error != "" {
		usage.Err = errors.New(s.Error)
		return api.StatusLine{Label: "Storage", Severity: "error", Detail: usage.Detail()}
	}
	severity := "ok"
	if s.FreeBytes < preflight.MinFreeBytes {
		severity = "warn"
	}
	return api.StatusLine{Label: "Storage", Severity: severity, Detail: usage.Detail()}
}

// BuildPathChecks resolves configured directory readiness.
func BuildPathChecks(cfg *config.Config) []api.StatusLine {
	lines := make([]api.StatusLine, 0, 3)
	for _, dir := range []struct {
		label string
		path  string
	}{
		{label: "Storage", path: cfg.Paths.StorageDir},
		{label: "State", path: cfg.Paths.StateDir},
		{label: "Logs", path: cfg.Paths.LogDir},
	} {
		result := preflight.CheckDirectoryAccess(dir.label, dir.path)
		severity := "error"
		if result.Passed {
			severity = "ok"
		}
		lines = append(lines, api.StatusLine{
			Label:    dir.label,
			Severity: severity,
			Detail:   result.Detail,
		})
	}
	return lines
}

// BuildDependencySummary computes aggregate dependency readiness.
func BuildDependencySummary(deps []api.DependencyStatus) api.DependencySummary {
	if len(deps) == 0 {
		return api.DependencySummary{
			Severity: "info",
			Detail:   "No dependency checks configured",
		}
	}

	missingRequired := 0
	missingOptional := 0
	for _, dep := range deps {
		if dep.Available {
			continue
		}
		if dep.Optional {
			missingOptional++
		} else {
			missingRequired++
		}
	}

	missingCount := missingRequired + missingOptional
	available := len(deps) - missingCount
	severity := "ok"
	if missingRequired > 0 {
		severity = "error"
	} else if missingOptional > 0 {
		severity = "warn"
	}
	detail := fmt.Sprintf("%d/%d available (missing: %d required, %d optional)", available, len(deps), missingRequired, missingOptional)
	if missingCount == 0 {
		detail = fmt.Sprintf("%d/%d available", available, len(deps))
	}

	return api.DependencySummary{
		Total:           len(deps),
		Available:       available,
		MissingRequired: missingRequired,
		MissingOptional: missingOptional,
		Severity:        severity,
		Detail:          detail,
	}
}
