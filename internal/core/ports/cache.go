package ports

import (
	"context"
	"time"

	"github.com/parkscope/analysis-api/internal/core/domain/analysis"
)

// CacheStats summarizes the cache for the administrative surface. Keys are
// surfaced with the store namespace prefix already stripped.
type CacheStats struct {
	Count int      `json:"count"`
	Keys  []string `json:"keys"`
}

// ContentCache maps a content key to a previously computed analysis result.
// Implementations degrade gracefully: a failing store turns Get into a miss
// so that callers fall through to inference instead of erroring.
type ContentCache interface {
	Get(ctx context.Context, key string) (*analysis.CacheEntry, bool, error)
	Put(ctx context.Context, key string, entry *analysis.CacheEntry, ttl time.Duration) error
	// Delete removes one entry; reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// ListKeys walks the store cursor until exhaustion.
	ListKeys(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*CacheStats, error)
	// Clear removes every entry and returns how many were deleted.
	Clear(ctx context.Context) (int, error)
	// DeleteByPrefix resolves a hash prefix to exactly one entry and deletes
	// it, returning the full key. analysis.ErrNoMatch and
	// analysis.ErrAmbiguousPrefix report failed resolutions.
	DeleteByPrefix(ctx context.Context, prefix string) (string, error)
}
