package returns

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnLine is one (variant, origin) pair being returned.
// It is either a RequestedLine or an ApprovedLine; an ApprovedLine always
// carries the shipping snapshot frozen at approval.
type ReturnLine interface {
	// Details returns the data every line carries regardless of variant
	Details() RequestedLine
	isReturnLine()
}

// RequestedLine is a line before approval. It has no shipping snapshot yet.
type RequestedLine struct {
	ID              uuid.UUID
	OrderItemID     uuid.UUID
	VariantID       uuid.UUID
	SKU             string
	OriginID        uuid.UUID
	Quantity        int
	OrderedQuantity int
	ReasonCode      string
	Condition       Condition
	// UnitPrice is the price snapshot taken from the order item at request time
	UnitPrice    decimal.Decimal
	RefundAmount decimal.Decimal
}

func (l RequestedLine) Details() RequestedLine { return l }
func (RequestedLine) isReturnLine()            {}

// Approve freezes the shipping snapshot onto the line
func (l RequestedLine) Approve(snapshot ReturnShippingSnapshot) ApprovedLine {
	return ApprovedLine{RequestedLine: l, Shipping: snapshot}
}

// WithRefund returns a copy of the line with its refund set
func (l RequestedLine) WithRefund(amount decimal.Decimal) RequestedLine {
	l.RefundAmount = amount
	return l
}

// ApprovedLine is a line whose return shipping has been decided
type ApprovedLine struct {
	RequestedLine
	Shipping ReturnShippingSnapshot
}

func (l ApprovedLine) Details() RequestedLine { return l.RequestedLine }
func (ApprovedLine) isReturnLine()            {}

// WithRefund returns a copy of the line with its refund set
func (l ApprovedLine) WithRefund(amount decimal.Decimal) ApprovedLine {
	l.RefundAmount = amount
	return l
}

// Restockable reports whether the returned units go back into sellable stock
func (l RequestedLine) Restockable() bool {
	return l.Condition.Restockable()
}

func validateRequestedLine(l RequestedLine) error {
	if l.VariantID == uuid.Nil {
		return ErrInvalidLine.WithMessage("variant is required")
	}
	if l.OriginID == uuid.Nil {
		return ErrFulfillmentDataMissing
	}
	if l.Quantity <= 0 {
		return ErrInvalidLine.WithMessage("return quantity must be positive")
	}
	if l.Quantity > l.OrderedQuantity {
		return ErrInvalidLine.WithMessage("return quantity cannot exceed ordered quantity")
	}
	if !l.Condition.IsValid() {
		return ErrInvalidLine.WithMessage("unknown item condition " + string(l.Condition))
	}
	if l.UnitPrice.IsNegative() {
		return ErrInvalidLine.WithMessage("unit price cannot be negative")
	}
	return nil
}
