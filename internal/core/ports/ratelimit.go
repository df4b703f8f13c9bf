package ports

import (
	"context"

	"github.com/parkscope/analysis-api/internal/core/domain/ratelimit"
)

// RateLimiterService decides admission per client identity using a fixed
// wall-clock window counter plus an escalating block state. Implementations
// MUST be safe for concurrent use across arbitrarily many process instances:
// all state lives in the shared key-value store.
//
// When the store is unreachable the limiter fails open, returning an allowed
// decision with full remaining quota; the degraded mode is logged.
type RateLimiterService interface {
	Admit(ctx context.Context, clientID string) (*ratelimit.Decision, error)
}
