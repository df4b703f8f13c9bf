package ports

import (
	"context"

	"github.com/parkscope/analysis-api/internal/core/domain/analysis"
)

// InferenceClient calls the external object-detection service with raw image
// bytes. Detections come back unnormalized: coordinates may be in [0,1] or in
// a pseudo-pixel range; the caller normalizes and validates them.
// Implementations apply bounded retries with backoff under the context
// deadline; an exhausted deadline is terminal for the request.
type InferenceClient interface {
	Detect(ctx context.Context, data []byte) ([]analysis.Detection, error)
	CheckHealth(ctx context.Context) error
}

// AnalysisService ties admission, hashing, caching, sniffing and inference
// together for one upload.
type AnalysisService interface {
	Analyze(ctx context.Context, clientID string, data []byte) (*analysis.Response, error)
}
