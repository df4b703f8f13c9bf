package analysis

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable marks failures of the backing key-value store. Callers
// absorb it with degraded-mode behavior instead of surfacing it.
var ErrStoreUnavailable = errors.New("key-value store unavailable")

// ErrInferenceFailed marks a terminal failure of the upstream detection
// service for one request. Results of failed calls are never cached.
var ErrInferenceFailed = errors.New("inference request failed")

// ErrNoMatch is returned by prefix-scoped admin lookups with zero matches.
var ErrNoMatch = errors.New("no cache entry matches prefix")

// ErrAmbiguousPrefix is returned when an admin hash prefix matches more than
// one cache entry. Callers must supply a longer prefix.
var ErrAmbiguousPrefix = errors.New("prefix matches multiple cache entries")

// ValidationError rejects a client payload before any hashing, caching or
// inference work happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid upload: %s", e.Reason)
}

// NewValidationError builds a ValidationError with the given reason.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
