package health

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/parkscope/analysis-api/internal/core/ports"
	infraDB "github.com/parkscope/analysis-api/internal/infrastructure/db"
)

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client *redis.Client }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// dbHealthChecker wraps the optional usage database for health checks.
type dbHealthChecker struct{ db *infraDB.Database }

func (d *dbHealthChecker) Name() string                    { return "database" }
func (d *dbHealthChecker) Check(ctx context.Context) error { return d.db.DB.PingContext(ctx) }

// inferenceHealthChecker probes the external detection service.
type inferenceHealthChecker struct{ client ports.InferenceClient }

func (i *inferenceHealthChecker) Name() string                    { return "inference" }
func (i *inferenceHealthChecker) Check(ctx context.Context) error { return i.client.CheckHealth(ctx) }

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client *redis.Client) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewDBHealthChecker creates a health checker for the usage database.
func NewDBHealthChecker(db *infraDB.Database) ports.HealthChecker { return &dbHealthChecker{db: db} }

// NewInferenceHealthChecker creates a health checker for the detection service.
func NewInferenceHealthChecker(client ports.InferenceClient) ports.HealthChecker {
	return &inferenceHealthChecker{client: client}
}
