package workflow

import (
	"context"
	"errors"

	"github.com/gbarton/yt4kids/internal/logging"
	"github.com/gbarton/yt4kids/internal/notifications"
	"github.com/gbarton/yt4kids/internal/queue"
)

func (m *Manager) notifyOutcome(ctx context.Context, entry *queue.Entry, record *queue.FileRecord, result TickResult) {
	if m.notifier == nil || entry == nil {
		return
	}
	payload := notifications.Payload{
		"id":       entry.ID,
		"title":    entry.Title,
		"attempts": entry.Attempts,
	}
	var event notifications.Event
	switch result.Outcome {
	case TickCompleted:
		event = notifications.EventDownloadCompleted
		if record != nil {
			payload["file"] = record.Filename
			payload["content_length"] = record.ContentLength
		}
	case TickSkipped:
		event = notifications.EventEntrySkipped
		payload["error"] = entry.LastError
	case TickFailed:
		event = notifications.EventDownloadFailed
		payload["error"] = entry.LastError
	default:
		return
	}

	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		logger := logging.WithContext(ctx, m.logger)
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send notification", logging.String("event", string(event)))
			return
		}
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String("event", string(event)),
			logging.String(logging.FieldImpact, "download outcome was not announced"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and notifications.redis_addr"),
		)
	}
}
