package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parkscope/analysis-api/internal/core/domain/analysis"
	"github.com/parkscope/analysis-api/internal/core/ports"
)

// listPageSize bounds a single store listing call; the cursor loop continues
// until the store reports exhaustion.
const listPageSize = 200

// ContentCacheService maps content keys to analysis results inside the
// shared key-value store. All keys are namespaced with a fixed prefix so
// they cannot collide with the rate limiter's records; the prefix is
// stripped again before keys are surfaced to administrative callers.
//
// A failing store degrades reads into misses and writes into no-ops so the
// request path keeps working without caching.
type ContentCacheService struct {
	store  ports.KeyValueStore
	prefix string
	logger *logrus.Logger
}

func NewContentCacheService(store ports.KeyValueStore, prefix string, logger *logrus.Logger) *ContentCacheService {
	if prefix == "" {
		prefix = "imgcache"
	}
	return &ContentCacheService{store: store, prefix: prefix, logger: logger}
}

func (c *ContentCacheService) namespaced(key string) string {
	return c.prefix + ":" + key
}

func (c *ContentCacheService) stripped(key string) string {
	return strings.TrimPrefix(key, c.prefix+":")
}

// Get returns the cached entry for key. Store failures and undecodable
// payloads degrade to a miss.
func (c *ContentCacheService) Get(ctx context.Context, key string) (*analysis.CacheEntry, bool, error) {
	raw, found, err := c.store.Get(ctx, c.namespaced(key))
	if err != nil {
		c.degraded("get", key, err)
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}
	var entry analysis.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.degraded("decode", key, err)
		return nil, false, nil
	}
	return &entry, true, nil
}

// Put stores entry under key with the given TTL. Entries are written once
// and never mutated; a concurrent duplicate upload simply overwrites with an
// equivalent payload.
func (c *ContentCacheService) Put(ctx context.Context, key string, entry *analysis.CacheEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.store.Put(ctx, c.namespaced(key), raw, ttl); err != nil {
		c.degraded("put", key, err)
		return nil
	}
	return nil
}

// Delete removes one entry and reports whether it existed.
func (c *ContentCacheService) Delete(ctx context.Context, key string) (bool, error) {
	ns := c.namespaced(key)
	_, found, err := c.store.Get(ctx, ns)
	if err != nil {
		return false, fmt.Errorf("cache delete: %w", err)
	}
	if !found {
		return false, nil
	}
	if err := c.store.Delete(ctx, ns); err != nil {
		return false, fmt.Errorf("cache delete: %w", err)
	}
	return true, nil
}

// ListKeys walks the store cursor until it reports no continuation and
// returns every cache key with the namespace prefix stripped.
func (c *ContentCacheService) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	cursor := ""
	for {
		page, next, err := c.store.List(ctx, c.prefix+":", cursor, listPageSize)
		if err != nil {
			return nil, fmt.Errorf("cache list: %w", err)
		}
		for _, k := range page {
			keys = append(keys, c.stripped(k))
		}
		if next == "" {
			return keys, nil
		}
		cursor = next
	}
}

// Stats reports entry count and keys for the administrative surface.
func (c *ContentCacheService) Stats(ctx context.Context) (*ports.CacheStats, error) {
	keys, err := c.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	return &ports.CacheStats{Count: len(keys), Keys: keys}, nil
}

// Clear deletes every entry and returns how many were removed.
func (c *ContentCacheService) Clear(ctx context.Context) (int, error) {
	keys, err := c.ListKeys(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, k := range keys {
		if err := c.store.Delete(ctx, c.namespaced(k)); err != nil {
			return deleted, fmt.Errorf("cache clear: %w", err)
		}
		deleted++
	}
	if c.logger != nil {
		c.logger.WithField("deleted", deleted).Info("cache cleared")
	}
	return deleted, nil
}

// DeleteByPrefix resolves a hash prefix against the full key list and
// deletes the single match. Ambiguous prefixes are rejected rather than
// resolved to an arbitrary entry.
func (c *ContentCacheService) DeleteByPrefix(ctx context.Context, prefix string) (string, error) {
	keys, err := c.ListKeys(ctx)
	if err != nil {
		return "", err
	}
	var match string
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if match != "" {
			return "", analysis.ErrAmbiguousPrefix
		}
		match = k
	}
	if match == "" {
		return "", analysis.ErrNoMatch
	}
	if err := c.store.Delete(ctx, c.namespaced(match)); err != nil {
		return "", fmt.Errorf("cache delete: %w", err)
	}
	return match, nil
}

func (c *ContentCacheService) degraded(op, key string, err error) {
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{"op": op, "key": key}).
			WithError(err).Warn("content cache: store unavailable, passing through")
	}
}
