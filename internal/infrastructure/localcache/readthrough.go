package localcache

import (
	"context"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/sirupsen/logrus"

	"github.com/parkscope/analysis-api/internal/core/ports"
)

// ReadThrough layers an in-process bigcache in front of a KeyValueStore.
// It is a best-effort speedup only: the shared store stays authoritative,
// and correctness never depends on the local copy. Deletes evict the local
// entry on this instance; other instances converge when their life window
// elapses. Intended for immutable entries such as analysis cache records —
// do not wrap rate-limit counters in it.
type ReadThrough struct {
	store  ports.KeyValueStore
	local  *bigcache.BigCache
	logger *logrus.Logger
}

func New(store ports.KeyValueStore, lifeWindow time.Duration, logger *logrus.Logger) (*ReadThrough, error) {
	local, err := bigcache.New(context.Background(), bigcache.DefaultConfig(lifeWindow))
	if err != nil {
		return nil, err
	}
	return &ReadThrough{store: store, local: local, logger: logger}, nil
}

// Get serves from the local layer when possible and falls back to the
// shared store, repopulating the local copy on a hit.
func (r *ReadThrough) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if val, err := r.local.Get(key); err == nil {
		return val, true, nil
	}
	val, found, err := r.store.Get(ctx, key)
	if err != nil || !found {
		return val, found, err
	}
	if err := r.local.Set(key, val); err != nil && r.logger != nil {
		r.logger.WithField("key", key).WithError(err).Debug("local cache set failed")
	}
	return val, true, nil
}

// Put writes through to the shared store and populates the local layer.
func (r *ReadThrough) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.store.Put(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := r.local.Set(key, value); err != nil && r.logger != nil {
		r.logger.WithField("key", key).WithError(err).Debug("local cache set failed")
	}
	return nil
}

// Delete removes the shared entry and evicts the local copy.
func (r *ReadThrough) Delete(ctx context.Context, key string) error {
	if err := r.store.Delete(ctx, key); err != nil {
		return err
	}
	_ = r.local.Delete(key)
	return nil
}

// List is served by the shared store; the local layer holds no key index.
func (r *ReadThrough) List(ctx context.Context, prefix, cursor string, count int64) ([]string, string, error) {
	return r.store.List(ctx, prefix, cursor, count)
}
