package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gbarton/yt4kids/internal/config"
)

// Event identifies a notification type.
type Event string

const (
	EventDownloadCompleted Event = "download_completed"
	EventDownloadFailed    Event = "download_failed"
	EventEntrySkipped      Event = "entry_skipped"
	EventTestNotification  Event = "test"
)

// Payload carries event-specific values.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service from configuration. ntfy and the
// Redis mirror are each enabled by their own settings; with neither set a
// noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	var services []Service
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		services = append(services, newNtfyService(topic, cfg.Notifications))
	}
	if addr := strings.TrimSpace(cfg.Notifications.RedisAddr); addr != "" {
		services = append(services, newRedisService(cfg.Notifications))
	}
	switch len(services) {
	case 0:
		return noopService{}
	case 1:
		return services[0]
	default:
		return multiService(services)
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

type multiService []Service

func (m multiService) Publish(ctx context.Context, event Event, payload Payload) error {
	var errs []error
	for _, svc := range m {
		if err := svc.Publish(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases transports that hold connections.
func Close(svc Service) error {
	switch s := svc.(type) {
	case *redisService:
		return s.Close()
	case multiService:
		var errs []error
		for _, inner := range s {
			errs = append(errs, Close(inner))
		}
		return errors.Join(errs...)
	default:
		return nil
	}
}

func requestTimeout(cfg config.Notifications) time.Duration {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return timeout
}

func payloadString(p Payload, key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
