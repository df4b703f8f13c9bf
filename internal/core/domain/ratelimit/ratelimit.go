package ratelimit

import "time"

// BlockReason enumerates why a client was placed into the blocked state.
type BlockReason string

const (
	// ReasonRateLimitExceeded is currently the only block reason.
	ReasonRateLimitExceeded BlockReason = "rate-limit-exceeded"
)

// Block is the persisted denial state for a client that exceeded the window
// ceiling. A client has at most one active block; its presence overrides the
// window counter entirely.
type Block struct {
	ClientID    string      `json:"clientId"`
	BlockedAt   time.Time   `json:"blockedAt"`
	UnblockTime time.Time   `json:"unblockTime"`
	Reason      BlockReason `json:"reason"`
}

// Expired reports whether the block no longer applies at the given instant.
func (b *Block) Expired(now time.Time) bool {
	return !now.Before(b.UnblockTime)
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// Remaining is the number of additional requests permitted in the
	// current window after this one. Zero when denied.
	Remaining int
	// Reset is the next window boundary when allowed, or the unblock time
	// when denied.
	Reset time.Time
}
