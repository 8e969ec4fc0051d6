package shared

import (
	"context"

	"github.com/google/uuid"
)

// SequenceAllocator hands out gap-free document numbers per (scope, store, year).
// Next must be atomic: concurrent callers never receive the same value.
type SequenceAllocator interface {
	Next(ctx context.Context, scope string, storeID uuid.UUID, year int) (int64, error)
}
