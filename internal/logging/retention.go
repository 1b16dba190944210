package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RetentionTarget names a directory of run logs to prune. Files matching
// Pattern that are older than the retention window are removed, except the
// KeepNewest most recent matches and any path listed in Exclude.
type RetentionTarget struct {
	Dir        string
	Pattern    string
	Exclude    []string
	KeepNewest int
}

// RetentionReport summarizes a pruning pass.
type RetentionReport struct {
	Removed int
	Failed  int
}

type logCandidate struct {
	path    string
	modTime time.Time
}

// CleanupOldLogs prunes each target. A retentionDays value of 0 disables
// pruning. Symlinks such as the yt4kids.log pointer are never touched.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) RetentionReport {
	var report RetentionReport
	if retentionDays <= 0 {
		return report
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	for _, target := range targets {
		for _, candidate := range expiredLogs(target, cutoff) {
			if err := os.Remove(candidate.path); err != nil {
				report.Failed++
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String("path", candidate.path),
					Error(err),
					String(FieldErrorHint, "check file permissions and log_dir ownership"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			report.Removed++
			logger.Debug("log pruned",
				String("path", candidate.path),
				Time("modified", candidate.modTime),
				String(FieldEventType, "log_pruned"),
			)
		}
	}
	if report.Removed > 0 {
		logger.Info("old logs pruned",
			Int("removed_count", report.Removed),
			Int("retention_days", retentionDays),
			String(FieldEventType, "log_retention_complete"),
		)
	}
	return report
}

// expiredLogs returns the removable matches of target, newest first.
func expiredLogs(target RetentionTarget, cutoff time.Time) []logCandidate {
	dir := strings.TrimSpace(target.Dir)
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	excluded := absPathSet(target.Exclude)
	pattern := strings.TrimSpace(target.Pattern)

	matches := make([]logCandidate, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if pattern != "" {
			if ok, err := filepath.Match(pattern, entry.Name()); err != nil || !ok {
				continue
			}
		}
		path := absOrSelf(filepath.Join(dir, entry.Name()))
		if _, skip := excluded[path]; skip {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		matches = append(matches, logCandidate{path: path, modTime: info.ModTime()})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].modTime.After(matches[j].modTime) })
	if target.KeepNewest > 0 {
		if target.KeepNewest >= len(matches) {
			return nil
		}
		matches = matches[target.KeepNewest:]
	}

	expired := matches[:0]
	for _, candidate := range matches {
		if candidate.modTime.Before(cutoff) {
			expired = append(expired, candidate)
		}
	}
	return expired
}

func absPathSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			set[absOrSelf(trimmed)] = struct{}{}
		}
	}
	return set
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
