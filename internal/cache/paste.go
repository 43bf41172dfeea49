package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yuvipaste/yuvipaste/internal/model"
)

// Cache key prefixes and TTLs.
const (
	pasteKeyPrefix    = "paste:"
	negCacheKeySuffix = ":neg"
	viewsKeyPrefix    = "views:"

	// DefaultPasteTTL is the TTL for cached pastes. Pastes are immutable,
	// so the TTL only bounds memory use.
	DefaultPasteTTL = 24 * time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 1 * time.Minute
)

// ErrCacheMiss is returned when a paste is not cached.
var ErrCacheMiss = errors.New("cache miss")

func pasteKey(id string) string    { return pasteKeyPrefix + id }
func negativeKey(id string) string { return pasteKeyPrefix + id + negCacheKeySuffix }
func viewsKey(id string) string    { return viewsKeyPrefix + id }

// GetPaste retrieves a paste from cache. Returns ErrCacheMiss if not found.
func (c *Cache) GetPaste(ctx context.Context, id string) (*model.Paste, error) {
	res := c.client.HGetAll(ctx, pasteKey(id))
	fields, err := res.Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrCacheMiss
	}

	var cached model.CachedPaste
	if err := res.Scan(&cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached paste: %w", err)
	}
	return cached.ToPaste(id), nil
}

// SetPaste stores a paste in cache and clears any negative entry.
func (c *Cache) SetPaste(ctx context.Context, p *model.Paste) error {
	key := pasteKey(p.ID)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, *p.ToCachedPaste())
	pipe.Expire(ctx, key, DefaultPasteTTL)
	pipe.Del(ctx, negativeKey(p.ID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache paste: %w", err)
	}
	return nil
}

// IsNegativelyCached checks if a paste ID is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, id string) (bool, error) {
	exists, err := c.client.Exists(ctx, negativeKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}
	return exists > 0, nil
}

// SetNegativeCache marks a paste ID as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id string) error {
	if err := c.client.SetEx(ctx, negativeKey(id), "", NegativeCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}
	return nil
}

// ClearNegativeCache removes the not-found marker for an ID.
func (c *Cache) ClearNegativeCache(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, negativeKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to clear negative cache: %w", err)
	}
	return nil
}

// IncrementViews increments and returns the view counter of a paste.
func (c *Cache) IncrementViews(ctx context.Context, id string) (int64, error) {
	n, err := c.client.Incr(ctx, viewsKey(id)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return n, nil
}

// GetViews returns the view counter of a paste, zero if never viewed.
func (c *Cache) GetViews(ctx context.Context, id string) (int64, error) {
	n, err := c.client.Get(ctx, viewsKey(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get views: %w", err)
	}
	return n, nil
}
