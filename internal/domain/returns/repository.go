package returns

import (
	"context"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
)

// ListFilter narrows a store's return requests
type ListFilter struct {
	shared.Filter
	Status     Status
	OrderID    *uuid.UUID
	CustomerID *uuid.UUID
}

// Repository defines persistence for the ReturnRequest aggregate.
// There is no delete: RMAs are never physically removed.
type Repository interface {
	// FindByIDForStore loads an RMA with its lines; shared.ErrNotFound if absent
	FindByIDForStore(ctx context.Context, storeID, id uuid.UUID) (*ReturnRequest, error)
	FindAllForStore(ctx context.Context, storeID uuid.UUID, filter ListFilter) ([]*ReturnRequest, int64, error)
	// FindOpenByOrder returns RMAs of the order that are neither received nor rejected
	FindOpenByOrder(ctx context.Context, storeID, orderID uuid.UUID) ([]*ReturnRequest, error)
	Create(ctx context.Context, r *ReturnRequest) error
	// SaveWithLock persists a transition. It fails with shared.ErrConcurrencyConflict
	// if the stored version no longer matches, i.e. another transition won.
	SaveWithLock(ctx context.Context, r *ReturnRequest) error
}
