package ports

import (
	"context"

	"github.com/parkscope/analysis-api/internal/core/domain/ratelimit"
)

// AlertNotifier informs operators about abuse events. Notifications are
// best-effort and must never delay or fail the request that triggered them.
type AlertNotifier interface {
	NotifyClientBlocked(ctx context.Context, block *ratelimit.Block) error
}
