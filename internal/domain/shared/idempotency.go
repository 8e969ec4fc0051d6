package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that have already been processed.
// It backs both the Idempotency-Key check on mutating HTTP requests and
// duplicate suppression in event handlers.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Forget removes a key so the work it guarded can be attempted again
	Forget(ctx context.Context, key string) error
	Close() error
}
