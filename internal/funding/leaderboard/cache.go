package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKey = "leaderboard:global"
	cacheTTL = 30 * time.Second
)

// Cache keeps the full ranking in Redis for a short TTL so read-heavy
// leaderboard traffic does not recompute the quadratic sort on every
// request. A nil client or any Redis failure degrades to a miss; the
// caller recomputes from the ledger.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewCache(client *redis.Client, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, logger: logger}
}

// Get returns the cached ranking and whether it was present. Failures are
// logged and reported as a miss.
func (c *Cache) Get(ctx context.Context) ([]Entry, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("leaderboard cache read failed", "error", err)
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn("leaderboard cache entry corrupt, discarding", "error", err)
		return nil, false
	}
	return entries, true
}

// Set stores the ranking with the cache TTL. Write failures are logged only.
func (c *Cache) Set(ctx context.Context, entries []Entry) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("leaderboard cache marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
		c.logger.Warn("leaderboard cache write failed", "error", err)
	}
}

// Invalidate drops the cached ranking, called after every accepted donation.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		c.logger.Warn("leaderboard cache invalidation failed", "error", err)
	}
}
