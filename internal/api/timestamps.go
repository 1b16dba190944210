package api

import (
	"strings"
	"time"
)

// Wire timestamps are UTC RFC 3339 with millisecond precision.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in the API timestamp layout, or "" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ParseTime reads a timestamp produced by FormatTime. Any RFC 3339 value is
// accepted; empty or malformed input yields the zero time.
func ParseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t
}

// DisplayName is the title shown to operators, or the video id when the
// entry was queued without one.
func (e QueueEntry) DisplayName() string {
	if title := strings.TrimSpace(e.Title); title != "" {
		return title
	}
	return e.ID
}
