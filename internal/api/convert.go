package api

import (
	"github.com/gbarton/yt4kids/internal/deps"
	"github.com/gbarton/yt4kids/internal/logging"
	"github.com/gbarton/yt4kids/internal/preflight"
	"github.com/gbarton/yt4kids/internal/queue"
	"github.com/gbarton/yt4kids/internal/workflow"
)

// FromEntry converts a queue entry to its API representation.
func FromEntry(entry *queue.Entry) QueueEntry {
	if entry == nil {
		return QueueEntry{}
	}
	return QueueEntry{
		ID:          entry.ID,
		AuthorID:    entry.AuthorID,
		Title:       entry.Title,
		State:       string(entry.State()),
		Complete:    entry.Complete,
		Skip:        entry.Skip,
		Attempts:    entry.Attempts,
		LastError:   entry.LastError,
		RequestedAt: FormatTime(entry.RequestedAt),
		UpdatedAt:   FormatTime(entry.UpdatedAt),
	}
}

// FromEntries converts a slice of queue entries into API DTOs.
func FromEntries(entries []*queue.Entry) []QueueEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]QueueEntry, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		out = append(out, FromEntry(entry))
	}
	return out
}

// FromFileRecord converts a stored file record.
func FromFileRecord(record *queue.FileRecord) FileRecord {
	if record == nil {
		return FileRecord{}
	}
	return FileRecord{
		ID:            record.ID,
		AuthorID:      record.AuthorID,
		Filename:      record.Filename,
		FileExtension: record.FileExtension,
		ContentLength: record.ContentLength,
		Kind:          record.Kind,
		CreatedAt:     FormatTime(record.CreatedAt),
	}
}

// FromStatusSummary converts a manager status summary and queue counts to API payload.
func FromStatusSummary(summary workflow.StatusSummary, stats map[queue.State]int) ManagerStatus {
	status := ManagerStatus{
		Running:        summary.Running,
		Busy:           summary.Busy,
		LastError:      summary.LastError,
		LastOutcome:    string(summary.LastOutcome),
		LastAttemptAt:  FormatTime(summary.LastAttemptAt),
		CooldownUntil:  FormatTime(summary.CooldownUntil),
		PollIntervalMS: summary.PollInterval.Milliseconds(),
		MaxAttempts:    summary.MaxAttempts,
		QueueStats:     MergeQueueStats(stats),
	}
	if summary.LastEntry != nil {
		last := FromEntry(summary.LastEntry)
		status.LastEntry = &last
	}
	return status
}

// FromTickResult converts a manager tick result.
func FromTickResult(result workflow.TickResult) TickResponse {
	resp := TickResponse{
		Outcome:  string(result.Outcome),
		EntryID:  result.EntryID,
		Attempts: result.Attempts,
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	return resp
}

// FromDependencyStatuses converts binary availability reports.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
			Severity:    DependencySeverity(s.Available, s.Optional),
		})
	}
	return out
}

// DependencySeverity classifies a dependency as ok, warn, or error.
func DependencySeverity(available, optional bool) string {
	switch {
	case available:
		return "ok"
	case optional:
		return "warn"
	default:
		return "error"
	}
}

// FromDiskUsage converts a storage volume snapshot.
func FromDiskUsage(usage preflight.DiskUsage) *StorageStatus {
	if usage.Path == "" {
		return nil
	}
	status := &StorageStatus{
		Path:        usage.Path,
		TotalBytes:  usage.Total,
		FreeBytes:   usage.Free,
		UsedPercent: usage.UsedPercent,
	}
	if usage.Err != nil {
		status.Error = usage.Err.Error()
	}
	return status
}

// FromLogEvents converts hub events to the wire shape.
func FromLogEvents(events []logging.LogEvent) []LogEvent {
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, LogEvent{
			Sequence:      evt.Sequence,
			Timestamp:     FormatTime(evt.Timestamp),
			Level:         evt.Level,
			Message:       evt.Message,
			Component:     evt.Component,
			Stage:         evt.Stage,
			ItemID:        evt.ItemID,
			CorrelationID: evt.CorrelationID,
			Fields:        evt.Fields,
		})
	}
	return out
}

// MergeQueueStats returns counts keyed by state string with every state present.
func MergeQueueStats(stats map[queue.State]int) map[string]int {
	out := make(map[string]int, len(queue.States))
	for _, state := range queue.States {
		out[string(state)] = 0
	}
	for state, count := range stats {
		out[string(state)] = count
	}
	return out
}
