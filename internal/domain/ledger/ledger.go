package ledger

import (
	"context"
	"time"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Party is a participant in the split of an order's value
type Party string

const (
	PartySupplier Party = "supplier"
	PartyReseller Party = "reseller"
	PartyPlatform Party = "platform"
)

// EntryType tags why an entry was booked
type EntryType string

const (
	EntryTypeReturnShipping EntryType = "RETURN_SHIPPING"
	EntryTypeRefundClawback EntryType = "REFUND_CLAWBACK"
)

// PaymentSplit is how an order's value was divided at sale time.
// It is read-only here; reversals never re-derive it from current pricing.
type PaymentSplit struct {
	ID             uuid.UUID
	StoreID        uuid.UUID
	OrderID        uuid.UUID
	SupplierID     *uuid.UUID
	ResellerID     *uuid.UUID
	SupplierAmount decimal.Decimal
	ResellerAmount decimal.Decimal
	PlatformAmount decimal.Decimal
	Currency       string
	CreatedAt      time.Time
}

// PartyShare is one party's portion of a split
type PartyShare struct {
	Party   Party
	PartyID *uuid.UUID
	Amount  decimal.Decimal
}

// Shares lists the split in a fixed order: supplier, reseller, platform
func (s *PaymentSplit) Shares() []PartyShare {
	return []PartyShare{
		{Party: PartySupplier, PartyID: s.SupplierID, Amount: s.SupplierAmount},
		{Party: PartyReseller, PartyID: s.ResellerID, Amount: s.ResellerAmount},
		{Party: PartyPlatform, Amount: s.PlatformAmount},
	}
}

// PartyID returns the identity recorded for a party, if any
func (s *PaymentSplit) PartyID(p Party) *uuid.UUID {
	switch p {
	case PartySupplier:
		return s.SupplierID
	case PartyReseller:
		return s.ResellerID
	default:
		return nil
	}
}

// Entry is an append-only ledger row. Reversal entries carry negative amounts.
type Entry struct {
	ID          uuid.UUID
	StoreID     uuid.UUID
	OrderID     uuid.UUID
	RMAID       uuid.UUID
	Party       Party
	PartyID     *uuid.UUID
	Type        EntryType
	Amount      decimal.Decimal
	Currency    string
	Reference   string
	AvailableAt time.Time
	CreatedAt   time.Time
}

// ReversalParams describes a reversal to book
type ReversalParams struct {
	StoreID   uuid.UUID
	OrderID   uuid.UUID
	RMAID     uuid.UUID
	Party     Party
	PartyID   *uuid.UUID
	Type      EntryType
	Amount    decimal.Decimal
	Currency  string
	Reference string
	Now       time.Time
}

// NewReversalEntry books a debit of Amount against the party. Amount is
// given as a positive value and stored negated; it is available at once.
func NewReversalEntry(p ReversalParams) (*Entry, error) {
	if !p.Amount.IsPositive() {
		return nil, shared.ErrInvalidInput.WithMessage("reversal amount must be positive")
	}
	if p.RMAID == uuid.Nil || p.OrderID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("reversal must reference an order and a return")
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Entry{
		ID:          uuid.New(),
		StoreID:     p.StoreID,
		OrderID:     p.OrderID,
		RMAID:       p.RMAID,
		Party:       p.Party,
		PartyID:     p.PartyID,
		Type:        p.Type,
		Amount:      p.Amount.Neg(),
		Currency:    p.Currency,
		Reference:   p.Reference,
		AvailableAt: now,
		CreatedAt:   now,
	}, nil
}

// Repository reads splits and appends entries. There is deliberately no
// update or delete.
type Repository interface {
	// FindSplitByOrder returns shared.ErrNotFound when the order was never split
	FindSplitByOrder(ctx context.Context, orderID uuid.UUID) (*PaymentSplit, error)
	Append(ctx context.Context, entries ...*Entry) error
	FindByRMA(ctx context.Context, rmaID uuid.UUID) ([]*Entry, error)
}
