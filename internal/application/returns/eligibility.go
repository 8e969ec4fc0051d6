package returns

import (
	"time"

	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/store"
	"github.com/google/uuid"
)

// LineRequest is one line of an inbound return request
type LineRequest struct {
	VariantID uuid.UUID
	// OriginID pins the line to a fulfillment origin; when nil the origin
	// recorded on the order item is used
	OriginID   *uuid.UUID
	Quantity   int
	ReasonCode string
	Condition  returns.Condition
}

// EligibilityInput is everything the validator looks at
type EligibilityInput struct {
	Store *store.Store
	Order *order.Order
	Lines []LineRequest
	// Pending sums quantities per order item held by other open returns
	Pending map[uuid.UUID]int
	Now     time.Time
}

// EligibilityValidator decides whether the requested quantities may be returned
type EligibilityValidator struct {
	defaultWindowDays int
}

// NewEligibilityValidator creates a validator. defaultWindowDays applies to
// stores that have no return window of their own.
func NewEligibilityValidator(defaultWindowDays int) *EligibilityValidator {
	return &EligibilityValidator{defaultWindowDays: defaultWindowDays}
}

// Validate returns one RequestedLine per input line with order snapshots
// filled in and no refund computed yet. Policy failures are reported together
// as ErrIneligibleReturn; a line whose origin cannot be resolved fails with
// ErrFulfillmentDataMissing.
func (v *EligibilityValidator) Validate(in EligibilityInput) ([]returns.RequestedLine, error) {
	if len(in.Lines) == 0 {
		return nil, returns.ErrIneligibleReturn.WithReasons(returns.ReasonNoLines)
	}

	var reasons reasonSet
	o := in.Order
	switch {
	case o.DeliveredAt == nil:
		reasons.add(returns.ReasonNotDelivered)
	case !o.Status.AcceptsReturns():
		reasons.add(returns.ReasonOrderStatus)
	default:
		window := time.Duration(v.defaultWindowDays) * 24 * time.Hour
		if in.Store != nil {
			window = in.Store.ReturnWindow(v.defaultWindowDays)
		}
		if window > 0 && in.Now.After(o.DeliveredAt.Add(window)) {
			reasons.add(returns.ReasonWindowExpired)
		}
	}

	claimed := make(map[uuid.UUID]int, len(in.Lines))
	lines := make([]returns.RequestedLine, 0, len(in.Lines))
	for _, req := range in.Lines {
		if req.Quantity <= 0 {
			reasons.add(returns.ReasonInvalidQuantity)
			continue
		}
		item, ok := o.ItemFor(req.VariantID, req.OriginID)
		if !ok {
			reasons.add(returns.ReasonItemNotInOrder)
			continue
		}

		originID := req.OriginID
		if originID == nil {
			originID = item.FulfillmentOriginID
		}
		if originID == nil {
			return nil, returns.ErrFulfillmentDataMissing.WithReasons(req.VariantID.String())
		}

		claimed[item.ID] += req.Quantity
		if claimed[item.ID]+in.Pending[item.ID] > item.Returnable() {
			reasons.add(returns.ReasonQuantityExceeded)
		}

		lines = append(lines, returns.RequestedLine{
			ID:              uuid.New(),
			OrderItemID:     item.ID,
			VariantID:       item.VariantID,
			SKU:             item.SKU,
			OriginID:        *originID,
			Quantity:        req.Quantity,
			OrderedQuantity: item.Quantity,
			ReasonCode:      req.ReasonCode,
			Condition:       req.Condition,
			UnitPrice:       item.UnitPrice,
		})
	}

	if len(reasons) > 0 {
		return nil, returns.ErrIneligibleReturn.WithReasons(reasons...)
	}
	return lines, nil
}

type reasonSet []string

func (r *reasonSet) add(reason string) {
	for _, existing := range *r {
		if existing == reason {
			return
		}
	}
	*r = append(*r, reason)
}
