package httpserver_test

import (
	"context"
	"time"

	"github.com/parkscope/analysis-api/internal/core/domain/analysis"
	"github.com/parkscope/analysis-api/internal/core/domain/ratelimit"
	"github.com/parkscope/analysis-api/internal/core/domain/usage"
	"github.com/parkscope/analysis-api/internal/core/ports"
)

type AnalysisServiceMock struct {
	AnalyzeFn func(ctx context.Context, clientID string, data []byte) (*analysis.Response, error)
}

func (m *AnalysisServiceMock) Analyze(ctx context.Context, clientID string, data []byte) (*analysis.Response, error) {
	if m.AnalyzeFn != nil {
		return m.AnalyzeFn(ctx, clientID, data)
	}
	return &analysis.Response{}, nil
}

type ContentCacheMock struct {
	GetFn            func(ctx context.Context, key string) (*analysis.CacheEntry, bool, error)
	PutFn            func(ctx context.Context, key string, entry *analysis.CacheEntry, ttl time.Duration) error
	DeleteFn         func(ctx context.Context, key string) (bool, error)
	ListKeysFn       func(ctx context.Context) ([]string, error)
	StatsFn          func(ctx context.Context) (*ports.CacheStats, error)
	ClearFn          func(ctx context.Context) (int, error)
	DeleteByPrefixFn func(ctx context.Context, prefix string) (string, error)
}

func (m *ContentCacheMock) Get(ctx context.Context, key string) (*analysis.CacheEntry, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return nil, false, nil
}

func (m *ContentCacheMock) Put(ctx context.Context, key string, entry *analysis.CacheEntry, ttl time.Duration) error {
	if m.PutFn != nil {
		return m.PutFn(ctx, key, entry, ttl)
	}
	return nil
}

func (m *ContentCacheMock) Delete(ctx context.Context, key string) (bool, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return false, nil
}

func (m *ContentCacheMock) ListKeys(ctx context.Context) ([]string, error) {
	if m.ListKeysFn != nil {
		return m.ListKeysFn(ctx)
	}
	return nil, nil
}

func (m *ContentCacheMock) Stats(ctx context.Context) (*ports.CacheStats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx)
	}
	return &ports.CacheStats{}, nil
}

func (m *ContentCacheMock) Clear(ctx context.Context) (int, error) {
	if m.ClearFn != nil {
		return m.ClearFn(ctx)
	}
	return 0, nil
}

func (m *ContentCacheMock) DeleteByPrefix(ctx context.Context, prefix string) (string, error) {
	if m.DeleteByPrefixFn != nil {
		return m.DeleteByPrefixFn(ctx, prefix)
	}
	return "", analysis.ErrNoMatch
}

type RateLimiterServiceMock struct {
	AdmitFn func(ctx context.Context, clientID string) (*ratelimit.Decision, error)
}

func (m *RateLimiterServiceMock) Admit(ctx context.Context, clientID string) (*ratelimit.Decision, error) {
	if m.AdmitFn != nil {
		return m.AdmitFn(ctx, clientID)
	}
	return &ratelimit.Decision{Allowed: true, Remaining: 1, Reset: time.Now().Add(time.Minute)}, nil
}

type UsageRepositoryMock struct {
	CreateFn     func(ctx context.Context, rec *usage.Record) error
	ListRecentFn func(ctx context.Context, limit int) ([]*usage.Record, error)
}

func (m *UsageRepositoryMock) Create(ctx context.Context, rec *usage.Record) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, rec)
	}
	return nil
}

func (m *UsageRepositoryMock) ListRecent(ctx context.Context, limit int) ([]*usage.Record, error) {
	if m.ListRecentFn != nil {
		return m.ListRecentFn(ctx, limit)
	}
	return nil, nil
}
