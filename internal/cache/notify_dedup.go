package cache

import (
	"context"
	"time"
)

// NotifyDedup remembers fired notification keys in Redis so replicas behind
// the same Redis do not repeat each other's notifications.
type NotifyDedup struct {
	redis *RedisClient
}

// NewNotifyDedup creates a new NotifyDedup.
func NewNotifyDedup(redis *RedisClient) *NotifyDedup {
	return &NotifyDedup{redis: redis}
}

// Allow sets notify:{key} for window and reports whether it was unset.
func (d *NotifyDedup) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	return d.redis.SetNX(ctx, "notify:"+key, "1", window)
}
