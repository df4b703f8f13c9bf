package usage

import (
	"time"

	"github.com/google/uuid"
)

// Record is one row of the optional analysis audit trail.
type Record struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ClientID     string    `json:"clientId" db:"client_id"`
	ImageHash    string    `json:"imageHash" db:"image_hash"`
	CacheHit     bool      `json:"cacheHit" db:"cache_hit"`
	ElementCount int       `json:"elementCount" db:"element_count"`
	DurationMs   int64     `json:"durationMs" db:"duration_ms"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
