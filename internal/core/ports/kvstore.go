package ports

import (
	"context"
	"time"
)

// KeyValueStore abstracts the shared, weakly consistent store that holds all
// cross-request state (rate-limit counters, blocks, cache entries).
// Implementations must distinguish "key not found" (found=false, nil error)
// from the store itself being unreachable, which is reported as an error
// wrapping analysis.ErrStoreUnavailable.
type KeyValueStore interface {
	// Get returns the raw bytes for key. found=false if absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Put stores value under key with a per-entry TTL (0 means no expiry).
	// Writes overwrite unconditionally; no compare-and-swap is assumed.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
	// List returns up to count keys matching prefix starting at cursor.
	// An empty next cursor means the listing is exhausted.
	List(ctx context.Context, prefix, cursor string, count int64) (keys []string, next string, err error)
}
