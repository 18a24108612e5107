// Package cache stores computed layouts and rendered artifacts.
//
// Layout runs are deterministic for a given board, configuration and node
// budget, so their results can be reused. A [Cache] is a byte store with
// expirations; a [Keyer] turns run inputs into keys. Three backends exist:
//
//   - [FileCache]: one file per entry under a directory, used by the CLI
//   - [RedisCache]: a shared store for `boardpack serve` replicas
//   - [NullCache]: stores nothing, used with --no-cache
//
// Keys are content hashes, so stale entries are never returned for changed
// inputs; TTLs only bound disk and memory use.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry type.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
	TTLPack     = 24 * time.Hour
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the stored value and whether it was found. A missing or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Clear removes every entry the cache owns.
	Clear(ctx context.Context) error

	Close() error
}
