package inventory

import (
	"context"
	"time"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
)

// Record tracks sellable stock of one variant at one origin
type Record struct {
	ID             uuid.UUID
	OriginID       uuid.UUID
	VariantID      uuid.UUID
	AvailableStock int
	Version        int
	UpdatedAt      time.Time
}

// NewRecord creates an empty stock record for an origin and variant
func NewRecord(originID, variantID uuid.UUID) *Record {
	return &Record{
		ID:        uuid.New(),
		OriginID:  originID,
		VariantID: variantID,
		Version:   0,
		UpdatedAt: time.Now(),
	}
}

// Restock puts qty units back into available stock
func (r *Record) Restock(qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidInput.WithMessage("restock quantity must be positive")
	}
	r.AvailableStock += qty
	r.UpdatedAt = time.Now()
	return nil
}

// ReservationStatus is the state of a stock hold
type ReservationStatus string

const (
	ReservationReserved ReservationStatus = "reserved"
	ReservationReleased ReservationStatus = "released"
)

// Reservation holds stock against an order line at an origin
type Reservation struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	VariantID  uuid.UUID
	OriginID   uuid.UUID
	Quantity   int
	Status     ReservationStatus
	ReleasedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReleaseUpTo releases the hold against at most qty returned units and
// returns how many units it consumed. A hold no larger than qty is released
// outright; a larger one shrinks by qty and stays reserved.
func (r *Reservation) ReleaseUpTo(qty int) int {
	if r.Status != ReservationReserved || qty <= 0 {
		return 0
	}
	now := time.Now()
	r.UpdatedAt = now
	if r.Quantity <= qty {
		consumed := r.Quantity
		r.Status = ReservationReleased
		r.ReleasedAt = &now
		return consumed
	}
	r.Quantity -= qty
	return qty
}

// Repository persists stock records and reservations
type Repository interface {
	// FindRecord returns shared.ErrNotFound when the origin never stocked the variant
	FindRecord(ctx context.Context, originID, variantID uuid.UUID) (*Record, error)
	// SaveRecord inserts a new record (Version 0) or updates with a version check
	SaveRecord(ctx context.Context, r *Record) error
	// FindReserved lists reserved holds for the order line, oldest first
	FindReserved(ctx context.Context, orderID, variantID, originID uuid.UUID) ([]*Reservation, error)
	SaveReservation(ctx context.Context, r *Reservation) error
}
