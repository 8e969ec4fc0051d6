package order

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of an order as far as returns are concerned
type Status string

const (
	StatusPending           Status = "pending"
	StatusPaid              Status = "paid"
	StatusShipped           Status = "shipped"
	StatusDelivered         Status = "delivered"
	StatusPartiallyReturned Status = "partially_returned"
	StatusFullyReturned     Status = "fully_returned"
	StatusCancelled         Status = "cancelled"
)

// AcceptsReturns reports whether new returns may be opened against the order
func (s Status) AcceptsReturns() bool {
	return s == StatusDelivered || s == StatusPartiallyReturned
}

// Item is one line of a placed order
type Item struct {
	ID         uuid.UUID
	VariantID  uuid.UUID
	SKU        string
	CategoryID *uuid.UUID
	Quantity   int
	// ReturnedQuantity counts units already received back on completed returns
	ReturnedQuantity int
	UnitPrice        decimal.Decimal
	// FulfillmentOriginID is the stock location the item shipped from; nil
	// when the fulfillment snapshot was never recorded
	FulfillmentOriginID *uuid.UUID
}

// Returnable is the quantity not yet received back
func (i Item) Returnable() int {
	return i.Quantity - i.ReturnedQuantity
}

// ShippingSnapshot is the outbound shipping charge frozen at order time
type ShippingSnapshot struct {
	Amount  decimal.Decimal
	Zone    string
	Carrier string
}

// Order is the already-placed order a return is raised against.
// This engine reads it and only ever writes return progress back.
type Order struct {
	ID               uuid.UUID
	StoreID          uuid.UUID
	Number           string
	CustomerID       uuid.UUID
	PaymentMethod    PaymentMethod
	PaymentReference string
	Status           Status
	DeliveredAt      *time.Time
	Subtotal         decimal.Decimal
	Tax              decimal.Decimal
	Total            decimal.Decimal
	Currency         string
	Items            []Item
	Shipping         ShippingSnapshot
	ShippingAddress  valueobject.Address
	Version          int
	UpdatedAt        time.Time
}

// OwnedBy reports whether customerID placed the order
func (o *Order) OwnedBy(customerID uuid.UUID) bool {
	return o.CustomerID == customerID
}

// TotalQuantity sums ordered units over all items
func (o *Order) TotalQuantity() int {
	total := 0
	for _, it := range o.Items {
		total += it.Quantity
	}
	return total
}

// ItemFor finds the order item for a variant. When originID is given the item
// must also have shipped from that origin. With no origin and several items of
// the same variant the first is returned.
func (o *Order) ItemFor(variantID uuid.UUID, originID *uuid.UUID) (*Item, bool) {
	for i := range o.Items {
		it := &o.Items[i]
		if it.VariantID != variantID {
			continue
		}
		if originID != nil && (it.FulfillmentOriginID == nil || *it.FulfillmentOriginID != *originID) {
			continue
		}
		return it, true
	}
	return nil, false
}

// ItemByID finds an item by its ID
func (o *Order) ItemByID(id uuid.UUID) (*Item, bool) {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// CheckReturn reports whether the received quantities still fit within what
// was ordered, without changing the order
func (o *Order) CheckReturn(received map[uuid.UUID]int) error {
	for itemID, qty := range received {
		it, ok := o.ItemByID(itemID)
		if !ok {
			return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("order %s has no item %s", o.Number, itemID))
		}
		if qty < 0 || it.ReturnedQuantity+qty > it.Quantity {
			return shared.ErrInvalidInput.WithMessage(
				fmt.Sprintf("returned quantity %d exceeds remaining %d for item %s", qty, it.Returnable(), itemID))
		}
	}
	return nil
}

// RecordReturn adds received quantities to the items and moves the order to
// fully_returned when every ordered unit has come back, partially_returned otherwise.
// Nothing changes when any quantity does not fit.
func (o *Order) RecordReturn(received map[uuid.UUID]int) error {
	if err := o.CheckReturn(received); err != nil {
		return err
	}
	for itemID, qty := range received {
		it, _ := o.ItemByID(itemID)
		it.ReturnedQuantity += qty
	}

	ordered, returned := 0, 0
	for _, it := range o.Items {
		ordered += it.Quantity
		returned += it.ReturnedQuantity
	}
	switch {
	case returned == 0:
		return nil
	case returned >= ordered:
		o.Status = StatusFullyReturned
	default:
		o.Status = StatusPartiallyReturned
	}
	o.UpdatedAt = time.Now()
	return nil
}

// Repository reads orders and writes back return progress
type Repository interface {
	// FindByIDForStore returns shared.ErrNotFound when the order is not in the store
	FindByIDForStore(ctx context.Context, storeID, id uuid.UUID) (*Order, error)
	// FindByIDForStoreForUpdate is FindByIDForStore holding a row lock on the
	// order until the transaction ends, serializing returns against one order
	FindByIDForStoreForUpdate(ctx context.Context, storeID, id uuid.UUID) (*Order, error)
	// SaveReturnProgress persists Status and per-item ReturnedQuantity with an
	// optimistic version check
	SaveReturnProgress(ctx context.Context, o *Order) error
}
