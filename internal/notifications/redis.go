package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis"

	"github.com/gbarton/yt4kids/internal/config"
)

// listPusher is the slice of the Redis client the mirror uses.
type listPusher interface {
	LPush(key string, values ...interface{}) *redis.IntCmd
	Close() error
}

// redisEvent is the JSON document pushed onto the list.
type redisEvent struct {
	Event     Event     `json:"event"`
	Payload   Payload   `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type redisService struct {
	client listPusher
	list   string
	now    func() time.Time
}

func newRedisService(cfg config.Notifications) *redisService {
	timeout := requestTimeout(cfg)
	client := redis.NewClient(&redis.Options{
		Addr:         strings.TrimSpace(cfg.RedisAddr),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	list := strings.TrimSpace(cfg.RedisList)
	if list == "" {
		list = config.DefaultRedisList
	}
	return &redisService{client: client, list: list, now: time.Now}
}

func (r *redisService) Publish(ctx context.Context, event Event, payload Payload) error {
	if r == nil || r.client == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := json.Marshal(redisEvent{Event: event, Payload: payload, Timestamp: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode redis event: %w", err)
	}
	if err := r.client.LPush(r.list, string(doc)).Err(); err != nil {
		return fmt.Errorf("push redis event: %w", err)
	}
	return nil
}

func (r *redisService) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
