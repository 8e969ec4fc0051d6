package finance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Refund gateway errors
var (
	ErrRefundInvalidOriginalPayment = errors.New("refund: invalid original payment reference")
	ErrRefundInvalidAmount          = errors.New("refund: invalid refund amount")
	ErrRefundInvalidReference       = errors.New("refund: invalid refund reference")
	ErrGatewayNotConfigured         = errors.New("payment: gateway not configured")
	ErrGatewayUnavailable           = errors.New("payment: gateway temporarily unavailable")
	ErrGatewayRequestFailed         = errors.New("payment: gateway request failed")
	ErrGatewayDeclined              = errors.New("payment: refund declined by gateway")
)

// RefundRequest asks a payment provider to refund part of a captured payment
type RefundRequest struct {
	StoreID uuid.UUID
	OrderID uuid.UUID
	RMAID   uuid.UUID
	// Reference is the RMA number; providers use it as the idempotency key
	Reference string
	// PaymentReference is the provider's identifier for the original payment
	PaymentReference string
	Amount           decimal.Decimal
	Currency         string
	Reason           string
}

// Validate validates the refund request
func (r *RefundRequest) Validate() error {
	if r.PaymentReference == "" {
		return ErrRefundInvalidOriginalPayment
	}
	if r.Reference == "" {
		return ErrRefundInvalidReference
	}
	if !r.Amount.IsPositive() {
		return ErrRefundInvalidAmount
	}
	return nil
}

// GatewayRefundStatus is the provider-reported state of a refund
type GatewayRefundStatus string

const (
	GatewayRefundPending   GatewayRefundStatus = "PENDING"
	GatewayRefundSucceeded GatewayRefundStatus = "SUCCEEDED"
	GatewayRefundFailed    GatewayRefundStatus = "FAILED"
)

// RefundResponse is what the provider answered
type RefundResponse struct {
	ProviderRefundID string
	Status           GatewayRefundStatus
	FailureReason    string
}

// RefundGateway issues refunds against card and wallet payments
type RefundGateway interface {
	Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)
}

// WalletCredit is a store-credit grant made instead of a cash refund
type WalletCredit struct {
	StoreID    uuid.UUID
	CustomerID uuid.UUID
	Reference  string
	Amount     decimal.Decimal
	Currency   string
}

// WalletCreditor is the hook into the external wallet/store-credit system
type WalletCreditor interface {
	Credit(ctx context.Context, credit WalletCredit) error
}
