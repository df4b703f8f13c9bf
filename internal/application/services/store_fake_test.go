package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/parkscope/analysis-api/internal/core/domain/analysis"
)

// memStore is an in-memory KeyValueStore with controllable time and an
// unavailability switch, standing in for the shared store in tests.
type memStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memEntry
	down    bool
}

type memEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func newMemStore(now func() time.Time) *memStore {
	if now == nil {
		now = time.Now
	}
	return &memStore{now: now, entries: make(map[string]memEntry)}
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, false, fmt.Errorf("%w: fake outage", analysis.ErrStoreUnavailable)
	}
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *memStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return fmt.Errorf("%w: fake outage", analysis.ErrStoreUnavailable)
	}
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return fmt.Errorf("%w: fake outage", analysis.ErrStoreUnavailable)
	}
	delete(m.entries, key)
	return nil
}

// List pages through sorted matching keys so that callers exercise their
// cursor loop the way they would against the real store.
func (m *memStore) List(ctx context.Context, prefix, cursor string, count int64) ([]string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, "", fmt.Errorf("%w: fake outage", analysis.ErrStoreUnavailable)
	}
	var matching []string
	for k, e := range m.entries {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
			continue
		}
		matching = append(matching, k)
	}
	sort.Strings(matching)

	start := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("bad cursor %q", cursor)
		}
		start = parsed
	}
	if start >= len(matching) {
		return nil, "", nil
	}
	end := start + int(count)
	if count <= 0 || end > len(matching) {
		end = len(matching)
	}
	next := ""
	if end < len(matching) {
		next = strconv.Itoa(end)
	}
	return matching[start:end], next, nil
}
