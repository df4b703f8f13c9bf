package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parkscope/analysis-api/internal/core/domain/analysis"
	"github.com/parkscope/analysis-api/internal/core/domain/image"
	"github.com/parkscope/analysis-api/internal/core/domain/usage"
	"github.com/parkscope/analysis-api/internal/core/ports"
)

// AnalysisService sequences one upload: hash the bytes, probe the cache,
// and on a miss sniff the header, call inference, normalize the detections
// and write the entry back. Two concurrent uploads of identical bytes may
// both miss and both call inference; the second write overwrites the first
// with an equivalent payload, which is accepted.
type AnalysisService struct {
	cache     ports.ContentCache
	inference ports.InferenceClient
	usageRepo ports.UsageRepository
	cacheTTL  time.Duration
	logger    *logrus.Logger
}

func NewAnalysisService(cache ports.ContentCache, inference ports.InferenceClient, usageRepo ports.UsageRepository, cacheTTL time.Duration, logger *logrus.Logger) *AnalysisService {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &AnalysisService{
		cache:     cache,
		inference: inference,
		usageRepo: usageRepo,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Analyze runs the full pipeline for one upload. Inference failures are
// terminal for the request and never cached.
func (s *AnalysisService) Analyze(ctx context.Context, clientID string, data []byte) (*analysis.Response, error) {
	if len(data) == 0 {
		return nil, analysis.NewValidationError("empty image payload")
	}

	start := time.Now()
	key := image.ContentKey(data)

	if entry, found, _ := s.cache.Get(ctx, key); found {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"image_hash": key, "client_id": clientID}).Debug("analysis cache hit")
		}
		resp := s.respond(entry, true, start)
		s.recordUsage(clientID, key, true, len(resp.Elements), start)
		return resp, nil
	}

	dims := image.Sniff(data)

	raw, err := s.inference.Detect(ctx, data)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"image_hash": key,
				"client_id":  clientID,
				"size":       len(data),
			}).WithError(err).Error("inference call failed")
		}
		return nil, fmt.Errorf("%w: %v", analysis.ErrInferenceFailed, err)
	}

	entry := &analysis.CacheEntry{
		Result: analysis.Result{
			Elements: analysis.NormalizeAll(raw),
			ImageInfo: analysis.ImageInfo{
				Width:  dims.Width,
				Height: dims.Height,
				Format: dims.Format,
				Size:   len(data),
			},
		},
		ImageHash: key,
		CreatedAt: time.Now().UTC(),
	}

	// Best effort: a failing store already degraded to a no-op inside the
	// cache service, so the result still reaches the caller.
	if err := s.cache.Put(ctx, key, entry, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.WithField("image_hash", key).WithError(err).Warn("failed to cache analysis result")
	}

	resp := s.respond(entry, false, start)
	s.recordUsage(clientID, key, false, len(resp.Elements), start)
	return resp, nil
}

func (s *AnalysisService) respond(entry *analysis.CacheEntry, cached bool, start time.Time) *analysis.Response {
	return &analysis.Response{
		Elements:       entry.Result.Elements,
		ImageInfo:      entry.Result.ImageInfo,
		ImageHash:      entry.ImageHash,
		Cached:         cached,
		ProcessingTime: time.Since(start).Round(time.Millisecond).String(),
	}
}

// recordUsage appends to the optional audit trail without blocking the
// request path.
func (s *AnalysisService) recordUsage(clientID, key string, hit bool, elements int, start time.Time) {
	if s.usageRepo == nil {
		return
	}
	rec := &usage.Record{
		ID:           uuid.New(),
		ClientID:     clientID,
		ImageHash:    key,
		CacheHit:     hit,
		ElementCount: elements,
		DurationMs:   time.Since(start).Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.usageRepo.Create(ctx, rec); err != nil && s.logger != nil {
			s.logger.WithField("image_hash", key).WithError(err).Warn("failed to record usage")
		}
	}()
}
