package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// IdempotencyCache implements ports.IdempotencyCache using Redis.
// Entries are written only after the owning database transaction commits,
// so a hit always reflects a committed key.
type IdempotencyCache struct {
	client *goredis.Client
	prefix string
}

// NewIdempotencyCache creates a new Redis-backed idempotency cache.
func NewIdempotencyCache(client *goredis.Client) *IdempotencyCache {
	return &IdempotencyCache{
		client: client,
		prefix: "idempotency:",
	}
}

// Exists reports whether key has been remembered and not yet expired.
func (c *IdempotencyCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis idempotency exists: %w", err)
	}
	return n > 0, nil
}

// Remember records key with the ID of the transaction it produced.
// A zero ttl keeps the entry until evicted.
func (c *IdempotencyCache) Remember(ctx context.Context, key string, transactionID string, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+key, transactionID, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis idempotency set: %w", err)
	}
	return nil
}
