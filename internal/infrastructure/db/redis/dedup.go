package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/securedoc/account-service/internal/core/ports"
)

const defaultDedupTTL = 24 * time.Hour

var _ ports.NotificationDedup = (*NotificationDedup)(nil)

// NotificationDedup remembers delivered notifications in Redis.
// Key format: notify:<event_type>:<confirmation_key>
type NotificationDedup struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewNotificationDedup wraps client. Entries expire after ttl, or after a
// day when ttl <= 0.
func NewNotificationDedup(client redis.Cmdable, ttl time.Duration) *NotificationDedup {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &NotificationDedup{client: client, ttl: ttl}
}

// IsDuplicate reports whether this notification has already been delivered.
func (d *NotificationDedup) IsDuplicate(ctx context.Context, kind, key string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(kind, key)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records a delivery.
func (d *NotificationDedup) Mark(ctx context.Context, kind, key string) error {
	if err := d.client.Set(ctx, d.key(kind, key), "1", d.ttl).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

func (d *NotificationDedup) key(kind, key string) string {
	return fmt.Sprintf("notify:%s:%s", kind, key)
}
