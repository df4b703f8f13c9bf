package httpserver_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parkscope/analysis-api/internal/core/ports"
	"github.com/parkscope/analysis-api/internal/infrastructure/httpserver"
)

type checkerStub struct {
	name string
	err  error
}

func (c *checkerStub) Name() string                    { return c.name }
func (c *checkerStub) Check(ctx context.Context) error { return c.err }

func TestHealth_AllDependenciesHealthy(t *testing.T) {
	ts := newTestServer(t, httpserver.ServerDeps{
		AnalysisService:    &AnalysisServiceMock{},
		ContentCache:       &ContentCacheMock{},
		RateLimiterService: &RateLimiterServiceMock{},
		HealthCheckers: []ports.HealthChecker{
			&checkerStub{name: "redis"},
			&checkerStub{name: "inference"},
		},
	})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	require.Equal(t, "healthy", body["status"])
	deps, ok := body["dependencies"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "healthy", deps["redis"])
	require.Equal(t, "healthy", deps["inference"])
}

func TestHealth_DegradedWhenDependencyDown(t *testing.T) {
	ts := newTestServer(t, httpserver.ServerDeps{
		AnalysisService:    &AnalysisServiceMock{},
		ContentCache:       &ContentCacheMock{},
		RateLimiterService: &RateLimiterServiceMock{},
		HealthCheckers: []ports.HealthChecker{
			&checkerStub{name: "redis"},
			&checkerStub{name: "inference", err: errors.New("connection refused")},
		},
	})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decodeJSON(t, resp)
	require.Equal(t, "degraded", body["status"])
	deps, ok := body["dependencies"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "unhealthy", deps["inference"])
}
