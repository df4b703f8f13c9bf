package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parkscope/analysis-api/internal/core/domain/usage"
	"github.com/parkscope/analysis-api/internal/core/ports"
	"github.com/parkscope/analysis-api/internal/infrastructure/db"
)

type usageRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewUsageRepository creates the Postgres-backed usage audit trail.
func NewUsageRepository(database *db.Database, logger *logrus.Logger) ports.UsageRepository {
	return &usageRepository{db: database, logger: logger}
}

// Create inserts one usage record.
func (r *usageRepository) Create(ctx context.Context, rec *usage.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	query := `
		INSERT INTO usage_records (
			id, client_id, image_hash, cache_hit, element_count, duration_ms, created_at
		) VALUES (
			:id, :client_id, :image_hash, :cache_hit, :element_count, :duration_ms, :created_at
		)`

	if _, err := r.db.DB.NamedExecContext(ctx, query, rec); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{
				"client_id":  rec.ClientID,
				"image_hash": rec.ImageHash,
			}).WithError(err).Error("db: failed to insert usage record")
		}
		return err
	}
	return nil
}

// ListRecent returns the newest records first.
func (r *usageRepository) ListRecent(ctx context.Context, limit int) ([]*usage.Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, client_id, image_hash, cache_hit, element_count, duration_ms, created_at
		FROM usage_records
		ORDER BY created_at DESC
		LIMIT $1`

	var records []*usage.Record
	if err := r.db.DB.SelectContext(ctx, &records, query, limit); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).Error("db: failed to list usage records")
		}
		return nil, err
	}
	return records, nil
}
