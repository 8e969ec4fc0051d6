package dto

import "net/http"

// Transport-level error codes. Domain codes pass through unchanged.
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
)

// Domain error codes raised by the returns service
const (
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeOrderNotFound          = "ORDER_NOT_FOUND"
	ErrCodeNotOwnedByCustomer     = "NOT_OWNED_BY_CUSTOMER"
	ErrCodeIneligibleReturn       = "INELIGIBLE_RETURN"
	ErrCodeFulfillmentDataMissing = "FULFILLMENT_DATA_MISSING"
	ErrCodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	ErrCodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	ErrCodeRefundExecutionFailed  = "REFUND_EXECUTION_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeDuplicateRequest: http.StatusConflict,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:               http.StatusNotFound,
	ErrCodeOrderNotFound:          http.StatusNotFound,
	ErrCodeNotOwnedByCustomer:     http.StatusForbidden,
	ErrCodeIneligibleReturn:       http.StatusUnprocessableEntity,
	ErrCodeFulfillmentDataMissing: http.StatusUnprocessableEntity,
	ErrCodeInvalidStateTransition: http.StatusConflict,
	ErrCodeConcurrencyConflict:    http.StatusConflict,
	ErrCodeRefundExecutionFailed:  http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
