package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/parkscope/analysis-api/internal/core/domain/analysis"
)

// KVStore implements ports.KeyValueStore on Redis. Transport failures are
// wrapped in analysis.ErrStoreUnavailable so callers can tell an unreachable
// store apart from an absent key.
type KVStore struct {
	r redis.Cmdable
}

// NewKVStore creates a Redis-backed key-value store.
func NewKVStore(r redis.Cmdable) *KVStore {
	return &KVStore{r: r}
}

// Get implements KeyValueStore.Get.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.r.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", analysis.ErrStoreUnavailable, key, err)
	}
	return val, true, nil
}

// Put implements KeyValueStore.Put.
func (s *KVStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.r.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: put %s: %v", analysis.ErrStoreUnavailable, key, err)
	}
	return nil
}

// Delete implements KeyValueStore.Delete.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.r.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %v", analysis.ErrStoreUnavailable, key, err)
	}
	return nil
}

// List implements KeyValueStore.List using SCAN. The cursor token is the
// numeric SCAN cursor rendered as a string; an empty token means "start" on
// input and "exhausted" on output.
func (s *KVStore) List(ctx context.Context, prefix, cursor string, count int64) ([]string, string, error) {
	var start uint64
	if cursor != "" {
		parsed, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("invalid list cursor %q: %w", cursor, err)
		}
		start = parsed
	}
	keys, next, err := s.r.Scan(ctx, start, prefix+"*", count).Result()
	if err != nil {
		return nil, "", fmt.Errorf("%w: scan %s: %v", analysis.ErrStoreUnavailable, prefix, err)
	}
	if next == 0 {
		return keys, "", nil
	}
	return keys, strconv.FormatUint(next, 10), nil
}
