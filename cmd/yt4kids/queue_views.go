package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gbarton/yt4kids/internal/api"
	"github.com/gbarton/yt4kids/internal/queue"
)

// buildQueueStatusRows lists known states in display order, then any others.
func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(stats))
	keys := make([]string, 0, len(stats))
	for _, state := range queue.States {
		key := string(state)
		if _, ok := stats[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	extra := make([]string, 0)
	for key := range stats {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), strconv.Itoa(stats[key])})
	}
	return rows
}

func buildQueueListRows(entries []api.QueueEntry) [][]string {
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		author := strings.TrimSpace(entry.AuthorID)
		if author == "" {
			author = "-"
		}
		rows = append(rows, []string{
			entry.ID,
			entry.DisplayName(),
			author,
			formatStatusLabel(entry.State),
			strconv.Itoa(entry.Attempts),
			formatDisplayTime(entry.RequestedAt),
		})
	}
	return rows
}

func describeEntryLines(entry api.QueueEntry, file *api.FileRecord) []string {
	lines := []string{
		fmt.Sprintf("ID:         %s", entry.ID),
		fmt.Sprintf("Title:      %s", entry.DisplayName()),
		fmt.Sprintf("Author:     %s", valueOrDash(entry.AuthorID)),
		fmt.Sprintf("State:      %s", formatStatusLabel(entry.State)),
		fmt.Sprintf("Complete:   %s", yesNo(entry.Complete)),
		fmt.Sprintf("Skipped:    %s", yesNo(entry.Skip)),
		fmt.Sprintf("Attempts:   %d", entry.Attempts),
		fmt.Sprintf("Requested:  %s", formatDisplayTime(entry.RequestedAt)),
		fmt.Sprintf("Updated:    %s", formatDisplayTime(entry.UpdatedAt)),
	}
	if msg := strings.TrimSpace(entry.LastError); msg != "" {
		lines = append(lines, fmt.Sprintf("Last error: %s", msg))
	}
	if file == nil {
		lines = append(lines, "File:       not downloaded")
		return lines
	}
	size := "unknown"
	if file.ContentLength >= 0 {
		size = humanize.IBytes(uint64(file.ContentLength))
	}
	lines = append(lines,
		fmt.Sprintf("File:       %s.%s", file.Filename, file.FileExtension),
		fmt.Sprintf("Size:       %s", size),
		fmt.Sprintf("Kind:       %s", valueOrDash(file.Kind)),
		fmt.Sprintf("Saved:      %s", formatDisplayTime(file.CreatedAt)),
	)
	return lines
}

func describeTick(resp api.TickResponse) string {
	switch resp.Outcome {
	case "busy":
		return "Manager busy (download or cooldown in progress)"
	case "no_work":
		return "No eligible entries"
	case "completed":
		return fmt.Sprintf("Downloaded %s", resp.EntryID)
	case "failed":
		return fmt.Sprintf("Download of %s failed (attempt %d): %s", resp.EntryID, resp.Attempts, valueOrDash(resp.Error))
	case "skipped":
		return fmt.Sprintf("Download of %s failed and reached the attempt limit; entry skipped", resp.EntryID)
	case "superseded":
		return fmt.Sprintf("Entry %s changed during the download; outcome discarded", resp.EntryID)
	case "interrupted":
		return fmt.Sprintf("Download of %s interrupted by shutdown; attempt not counted", resp.EntryID)
	case "error":
		if resp.EntryID != "" {
			return fmt.Sprintf("Tick error for %s: %s", resp.EntryID, valueOrDash(resp.Error))
		}
		return fmt.Sprintf("Tick error: %s", valueOrDash(resp.Error))
	default:
		return fmt.Sprintf("Tick outcome: %s", resp.Outcome)
	}
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	t := api.ParseTime(value)
	if t.IsZero() {
		if strings.TrimSpace(value) == "" {
			return "-"
		}
		return value
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format(time.DateTime), humanize.Time(t))
}
