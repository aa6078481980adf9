package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"coinvault/internal/logger"
)

const (
	keyPrefix = "coinvault:tx:"
	markTTL   = 24 * time.Hour
)

// Cache remembers recently committed idempotency tokens in redis so that a
// retried request can be rejected without touching the database. It is a
// best-effort fast path only: redis being down or cold never lets a
// duplicate through, because the ledger's unique constraint on tx_id is the
// authoritative check.
type Cache struct {
	redis *redis.Client
}

func NewCache(addr string) *Cache {
	return &Cache{
		redis: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// NewCacheWithClient wraps an existing client. Used by tests.
func NewCacheWithClient(client *redis.Client) *Cache {
	return &Cache{redis: client}
}

// Seen reports whether the token was marked as committed. Errors are
// swallowed: a failing cache must degrade to the database checks.
func (c *Cache) Seen(ctx context.Context, txID string) bool {
	n, err := c.redis.Exists(ctx, keyPrefix+txID).Result()
	if err != nil {
		logger.Debugf("idempotency cache lookup failed: %v", err)
		return false
	}
	return n > 0
}

// Mark records a committed token. Failures are logged and ignored.
func (c *Cache) Mark(ctx context.Context, txID string) {
	if err := c.redis.Set(ctx, keyPrefix+txID, 1, markTTL).Err(); err != nil {
		logger.Debugf("idempotency cache mark failed: %v", err)
	}
}

func (c *Cache) Close() error {
	return c.redis.Close()
}
