package redisclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SlotCache is a read-through cache for availability listings. Entries are
// versioned per doctor: invalidation bumps the doctor's version counter,
// which orphans every key built against the old version. Orphans age out
// via TTL, so no key scans are needed.
type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSlotCache(client *redis.Client, ttl time.Duration) *SlotCache {
	return &SlotCache{
		client: client,
		ttl:    ttl,
	}
}

// Key builds the cache key for one availability query. The parts are the
// raw query parameters; order matters and must be stable across callers.
func (c *SlotCache) Key(ctx context.Context, doctorID uuid.UUID, parts ...string) string {
	ver, err := c.client.Get(ctx, versionKey(doctorID)).Result()
	if err != nil {
		ver = "0"
	}
	return fmt.Sprintf("slots:%s:v%s:%s", doctorID, ver, strings.Join(parts, ":"))
}

// Get returns the cached payload for key, or ok=false on miss or any Redis
// error. Cache failures are never surfaced to the request path.
func (c *SlotCache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *SlotCache) Set(ctx context.Context, key string, payload []byte) error {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache availability listing: %w", err)
	}
	return nil
}

// Invalidate drops every cached listing for the doctor by bumping the
// version counter.
func (c *SlotCache) Invalidate(ctx context.Context, doctorID uuid.UUID) error {
	if err := c.client.Incr(ctx, versionKey(doctorID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("invalidate slot cache: %w", err)
	}
	return nil
}

func versionKey(doctorID uuid.UUID) string {
	return fmt.Sprintf("slots:ver:%s", doctorID)
}
