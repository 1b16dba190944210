package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gbarton/yt4kids/internal/config"
)

const userAgent = "yt4kids/0.1.0"

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	cfg      config.Notifications
}

func newNtfyService(topic string, cfg config.Notifications) *ntfyService {
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: requestTimeout(cfg)},
		cfg:      cfg,
	}
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	title := payloadString(payload, "title")
	if title == "" {
		title = payloadString(payload, "id")
	}
	switch event {
	case EventDownloadCompleted:
		if !n.cfg.DownloadCompleted {
			return message{}, false
		}
		body := fmt.Sprintf("✅ Downloaded: %s", title)
		if file := payloadString(payload, "file"); file != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, file)
		}
		return message{
			title: "yt4kids - Downloaded",
			body:  body,
			tags:  []string{"yt4kids", "download", "completed"},
		}, true
	case EventEntrySkipped:
		if !n.cfg.EntrySkipped {
			return message{}, false
		}
		return message{
			title:    "yt4kids - Skipped",
			body:     fmt.Sprintf("⏭️ Giving up on %s after %s attempts: %s", title, payloadString(payload, "attempts"), payloadString(payload, "error")),
			tags:     []string{"yt4kids", "download", "skipped"},
			priority: "high",
		}, true
	case EventDownloadFailed:
		if !n.cfg.DownloadFailed {
			return message{}, false
		}
		return message{
			title: "yt4kids - Download Failed",
			body:  fmt.Sprintf("❌ Attempt %s failed for %s: %s", payloadString(payload, "attempts"), title, payloadString(payload, "error")),
			tags:  []string{"yt4kids", "download", "failed"},
		}, true
	case EventTestNotification:
		return message{
			title:    "yt4kids - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"yt4kids", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
