package ports

import (
	"context"

	"github.com/parkscope/analysis-api/internal/core/domain/usage"
)

// UsageRepository persists the optional per-request audit trail. The trail is
// best-effort: write failures are logged by callers, never surfaced.
type UsageRepository interface {
	Create(ctx context.Context, rec *usage.Record) error
	ListRecent(ctx context.Context, limit int) ([]*usage.Record, error)
}
