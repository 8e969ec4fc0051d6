package returns

import "github.com/erp/returns/internal/domain/shared"

var (
	ErrOrderNotFound          = shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	ErrNotOwnedByCustomer     = shared.NewDomainError("NOT_OWNED_BY_CUSTOMER", "Order does not belong to this customer")
	ErrIneligibleReturn       = shared.NewDomainError("INELIGIBLE_RETURN", "Return is not eligible")
	ErrFulfillmentDataMissing = shared.NewDomainError("FULFILLMENT_DATA_MISSING", "Fulfillment origin could not be resolved for a return line")
	ErrRefundExecutionFailed  = shared.NewDomainError("REFUND_EXECUTION_FAILED", "Refund could not be executed")
	ErrInvalidLine            = shared.NewDomainError("VALIDATION_ERROR", "Invalid return line")
	ErrRMANotFound            = shared.ErrNotFound.WithMessage("Return request not found")
)

// Eligibility reason codes carried on ErrIneligibleReturn
const (
	ReasonNotDelivered     = "NOT_DELIVERED"
	ReasonWindowExpired    = "WINDOW_EXPIRED"
	ReasonQuantityExceeded = "QUANTITY_EXCEEDED"
	ReasonItemNotInOrder   = "ITEM_NOT_IN_ORDER"
	ReasonInvalidQuantity  = "INVALID_QUANTITY"
	ReasonOrderStatus      = "ORDER_STATUS"
	ReasonNoLines          = "NO_LINES"
)
