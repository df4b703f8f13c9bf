package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parkscope/analysis-api/internal/core/domain/analysis"
)

// hashPreviewLen is how much of each content key the stats preview exposes.
const hashPreviewLen = 12

// cacheEntryPreview is one row of the admin stats listing: a truncated
// content key plus when the entry was created. CreatedAt is omitted when the
// entry expired between the listing and the lookup.
type cacheEntryPreview struct {
	Hash      string     `json:"hash"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// getCacheStats reports entry count plus a bounded preview of entries.
func (s *Server) getCacheStats(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cache listing unavailable")
	}

	limit := s.config.CachePreviewLimit
	if limit <= 0 {
		limit = 20
	}
	preview := make([]cacheEntryPreview, 0, limit)
	for _, k := range stats.Keys {
		if len(preview) >= limit {
			break
		}
		row := cacheEntryPreview{Hash: k}
		if len(k) > hashPreviewLen {
			row.Hash = k[:hashPreviewLen]
		}
		if entry, found, err := s.cache.Get(ctx, k); err == nil && found {
			created := entry.CreatedAt
			row.CreatedAt = &created
		}
		preview = append(preview, row)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   stats.Count,
		"preview": preview,
	})
}

// clearCache removes every cached analysis result.
func (s *Server) clearCache(c echo.Context) error {
	deleted, err := s.cache.Clear(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cache clear failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deleted": deleted})
}

// deleteCacheEntry removes the single entry matching a hash prefix.
// Ambiguous prefixes are rejected so an operator cannot delete the wrong
// entry by accident.
func (s *Server) deleteCacheEntry(c echo.Context) error {
	prefix := c.Param("prefix")
	if prefix == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "hash prefix required")
	}

	key, err := s.cache.DeleteByPrefix(c.Request().Context(), prefix)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrNoMatch):
			return echo.NewHTTPError(http.StatusNotFound, "no cache entry matches prefix")
		case errors.Is(err, analysis.ErrAmbiguousPrefix):
			return echo.NewHTTPError(http.StatusConflict, "prefix matches multiple entries, use a longer prefix")
		default:
			return echo.NewHTTPError(http.StatusServiceUnavailable, "cache delete failed")
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deleted": key})
}

// getUsageRecords lists the most recent entries of the optional audit trail.
func (s *Server) getUsageRecords(c echo.Context) error {
	if s.usageRepo == nil {
		return echo.NewHTTPError(http.StatusNotFound, "usage tracking not enabled")
	}

	limit := s.config.UsagePreviewLimit
	if limit <= 0 {
		limit = 50
	}
	records, err := s.usageRepo.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "usage listing unavailable")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}
