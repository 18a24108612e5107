package cache

import (
	"context"
	"time"
)

// MaxTTL wraps c so that no entry outlives max. Entries stored without a
// TTL get max. A non-positive max returns c unchanged.
func MaxTTL(c Cache, max time.Duration) Cache {
	if max <= 0 {
		return c
	}
	return &maxTTLCache{Cache: c, max: max}
}

type maxTTLCache struct {
	Cache
	max time.Duration
}

func (c *maxTTLCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > c.max {
		ttl = c.max
	}
	return c.Cache.Set(ctx, key, data, ttl)
}
