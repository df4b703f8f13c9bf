package httpserver_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/parkscope/analysis-api/internal/core/domain/analysis"
	"github.com/parkscope/analysis-api/internal/core/domain/usage"
	"github.com/parkscope/analysis-api/internal/core/ports"
	"github.com/parkscope/analysis-api/internal/infrastructure/httpserver"
)

func newTestServerWithJWT(t *testing.T, secret string, deps httpserver.ServerDeps) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv := httpserver.NewServer(&httpserver.ServerConfig{
		Host:           "127.0.0.1",
		Port:           "0",
		ReadTimeout:    time.Second,
		WriteTimeout:   time.Second,
		IdleTimeout:    time.Second,
		AdminJWTSecret: secret,
	}, logger, deps)

	ts := httptest.NewServer(srv.Echo())
	t.Cleanup(ts.Close)
	return ts
}

func adminRequest(t *testing.T, method, url string, creds func(*http.Request)) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if creds != nil {
		creds(req)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func withAdminKey(req *http.Request) {
	req.Header.Set("X-Admin-Key", testAdminKey)
}

func TestAdmin_RejectsMissingCredentials(t *testing.T) {
	ts := newTestServer(t, httpserver.ServerDeps{
		AnalysisService:    &AnalysisServiceMock{},
		ContentCache:       &ContentCacheMock{},
		RateLimiterService: &RateLimiterServiceMock{},
	})

	resp := adminRequest(t, http.MethodGet, ts.URL+"/api/v1/admin/cache", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdmin_RejectsWrongKey(t *testing.T) {
	ts := newTestServer(t, httpserver.ServerDeps{
		AnalysisService:    &AnalysisServiceMock{},
		ContentCache:       &ContentCacheMock{},
		RateLimiterService: &RateLimiterServiceMock{},
	})

	resp := adminRequest(t, http.MethodGet, ts.URL+"/api/v1/admin/cache", func(req *http.Request) {
		req.Header.Set("X-Admin-Key", "not-the-key")
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdmin_CacheStatsWithPreview(t *testing.T) {
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := &ContentCacheMock{
		StatsFn: func(ctx context.Context) (*ports.CacheStats, error) {
			return &ports.CacheStats{
				Count: 2,
				Keys: []string{
					"aaaabbbbccccdddd0000111122223333",
					"eeeeffff0000111122223333aaaabbbb",
				},
			}, nil
		},
		GetFn: func(ctx context.Context, key string) (*analysis.CacheEntry, bool, error) {
			// The second entry expires between the listing and the lookup.
			if key == "eeeeffff0000111122223333aaaabbbb" {
				return nil, false, nil
			}
			return &analysis.CacheEntry{ImageHash: key, CreatedAt: created}, true, nil
		},
	}
	ts := newTestServer(t, httpserver.ServerDeps{
		AnalysisService:    &AnalysisServiceMock{},
		ContentCache:       cache,
		RateLimiterService: &RateLimiterServiceMock{},
	})

	resp := adminRequest(t, http.MethodGet, ts.URL+"/api/v1/admin/cache", withAdminKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	require.Equal(t, float64(2), body["count"])
	preview, ok := body["preview"].([]interface{})
	require.True(t, ok)
	require.Len(t, preview, 2)

	first, ok := preview[0].(map[string]interface{})
	require.True(t, ok)
	// Keys are truncated so the stats surface never leaks full content keys.
	require.Equal(t, "aaaabbbbcccc", first["hash"])
	require.Equal(t, created.Format(time.RFC3339), first["createdAt"])

	second, ok := preview[1].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "eeeeffff0000", second["hash"])
	_, hasCreated := second["createdAt"]
	require.False(t, hasCreated, "expired entries carry no creation timestamp")
}

func TestAdmin_ClearCache(t *testing.T) {
	cache := &ContentCacheMock{ClearFn: func(ctx context.Context) (int, error) { return 7, nil }}
	ts := newTestServer(t, httpserver.ServerDeps{
		AnalysisService:    &AnalysisServiceMock{},
		ContentCache:       cache,
		RateLimiterService: &RateLimiterServiceMock{},
	})

	resp := adminRequest(t, http.MethodDelete, ts.URL+"/api/v1/admin/cache", withAdminKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	require.Equal(t, float64(7), body["deleted"])
}

func TestAdmin_DeleteByPrefixOutcomes(t *testing.T) {
	cache := &ContentCacheMock{DeleteByPrefixFn: func(ctx context.Context, prefix string) (string, error) {
		switch prefix {
		case "cafe":
			return "cafe0123", nil
		case "ab":
			return "", analysis.ErrAmbiguousPrefix
		default:
			return "", analysis.ErrNoMatch
		}
	}}
	ts := newTestServer(t, httpserver.ServerDeps{
		AnalysisService:    &AnalysisServiceMock{},
		ContentCache:       cache,
		RateLimiterService: &RateLimiterServiceMock{},
	})

	resp := adminRequest(t, http.MethodDelete, ts.URL+"/api/v1/admin/cache/cafe", withAdminKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	require.Equal(t, "cafe0123", body["deleted"])

	resp = adminRequest(t, http.MethodDelete, ts.URL+"/api/v1/admin/cache/ab", withAdminKey)
	resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = adminRequest(t, http.MethodDelete, ts.URL+"/api/v1/admin/cache/zz", withAdminKey)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdmin_UsageListing(t *testing.T) {
	repo := &UsageRepositoryMock{ListRecentFn: func(ctx context.Context, limit int) ([]*usage.Record, error) {
		return []*usage.Record{{ClientID: "1.2.3.4", ImageHash: "cafe0123", CacheHit: true}}, nil
	}}
	ts := newTestServer(t, httpserver.ServerDeps{
		AnalysisService:    &AnalysisServiceMock{},
		ContentCache:       &ContentCacheMock{},
		RateLimiterService: &RateLimiterServiceMock{},
		UsageRepository:    repo,
	})

	resp := adminRequest(t, http.MethodGet, ts.URL+"/api/v1/admin/usage", withAdminKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	require.Equal(t, float64(1), body["count"])
}

func TestAdmin_UsageDisabledReturns404(t *testing.T) {
	ts := newTestServer(t, httpserver.ServerDeps{
		AnalysisService:    &AnalysisServiceMock{},
		ContentCache:       &ContentCacheMock{},
		RateLimiterService: &RateLimiterServiceMock{},
	})

	resp := adminRequest(t, http.MethodGet, ts.URL+"/api/v1/admin/usage", withAdminKey)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdmin_AcceptsBearerJWT(t *testing.T) {
	secret := "jwt-test-secret"
	ts := newTestServerWithJWT(t, secret, httpserver.ServerDeps{
		AnalysisService:    &AnalysisServiceMock{},
		ContentCache:       &ContentCacheMock{},
		RateLimiterService: &RateLimiterServiceMock{},
	})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	resp := adminRequest(t, http.MethodGet, ts.URL+"/api/v1/admin/cache", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+signed)
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = adminRequest(t, http.MethodGet, ts.URL+"/api/v1/admin/cache", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer not.a.token")
	})
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
