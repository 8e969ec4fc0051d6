package returns

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DispatchResult is the normalized outcome of a refund execution
type DispatchResult struct {
	Success          bool
	ProviderRefundID string
	ErrorReason      string
	RefundStatus     returns.RefundStatus
}

// noopWalletCreditor accepts every credit. Store credit lives outside this service.
type noopWalletCreditor struct{}

func (noopWalletCreditor) Credit(context.Context, finance.WalletCredit) error { return nil }

// RefundDispatcher chooses the settlement path from the order's payment method
type RefundDispatcher struct {
	gateway finance.RefundGateway
	wallet  finance.WalletCreditor
	metrics Metrics
	logger  *zap.Logger
}

// NewRefundDispatcher creates a dispatcher. gateway may be nil when no
// provider is configured; card and wallet refunds then fail.
func NewRefundDispatcher(gateway finance.RefundGateway, wallet finance.WalletCreditor, logger *zap.Logger) *RefundDispatcher {
	if wallet == nil {
		wallet = noopWalletCreditor{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundDispatcher{gateway: gateway, wallet: wallet, metrics: noopMetrics{}, logger: logger}
}

// SetMetrics sets the metrics sink
func (d *RefundDispatcher) SetMetrics(m Metrics) {
	if m != nil {
		d.metrics = m
	}
}

// Dispatch executes the refund of amount for the return. A failed refund is
// reported in the result; the returned error is reserved for a payment method
// this dispatcher does not know.
func (d *RefundDispatcher) Dispatch(ctx context.Context, o *order.Order, rma *returns.ReturnRequest, amount decimal.Decimal) (DispatchResult, error) {
	settlement, err := o.PaymentMethod.Settlement()
	if err != nil {
		return DispatchResult{}, err
	}

	start := time.Now()
	var res DispatchResult
	switch settlement {
	case order.SettlementProvider:
		res = d.viaProvider(ctx, o, rma, amount)
	case order.SettlementCash:
		res = d.viaCash(ctx, o, rma, amount)
	default:
		return DispatchResult{}, fmt.Errorf("no refund path for settlement %d", settlement)
	}

	outcome := OutcomeFailed
	if res.Success {
		outcome = string(res.RefundStatus)
	}
	d.metrics.ObserveDispatch(string(o.PaymentMethod), outcome, time.Since(start))
	return res, nil
}

func (d *RefundDispatcher) viaProvider(ctx context.Context, o *order.Order, rma *returns.ReturnRequest, amount decimal.Decimal) DispatchResult {
	if !amount.IsPositive() {
		return DispatchResult{Success: true, RefundStatus: returns.RefundStatusCompleted}
	}
	if d.gateway == nil {
		return DispatchResult{ErrorReason: finance.ErrGatewayNotConfigured.Error(), RefundStatus: returns.RefundStatusPending}
	}

	resp, err := d.gateway.Refund(ctx, &finance.RefundRequest{
		StoreID:          o.StoreID,
		OrderID:          o.ID,
		RMAID:            rma.ID,
		Reference:        rma.RMANumber,
		PaymentReference: o.PaymentReference,
		Amount:           amount,
		Currency:         o.Currency,
		Reason:           "Return " + rma.RMANumber,
	})
	if err != nil {
		d.logger.Warn("provider refund failed",
			zap.String("rma_number", rma.RMANumber),
			zap.String("order_id", o.ID.String()),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return DispatchResult{ErrorReason: err.Error(), RefundStatus: returns.RefundStatusPending}
	}

	switch resp.Status {
	case finance.GatewayRefundFailed:
		reason := resp.FailureReason
		if reason == "" {
			reason = finance.ErrGatewayDeclined.Error()
		}
		return DispatchResult{ProviderRefundID: resp.ProviderRefundID, ErrorReason: reason, RefundStatus: returns.RefundStatusPending}
	default:
		// A provider-side PENDING refund has been accepted and will settle
		// without further action from us.
		return DispatchResult{Success: true, ProviderRefundID: resp.ProviderRefundID, RefundStatus: returns.RefundStatusCompleted}
	}
}

func (d *RefundDispatcher) viaCash(ctx context.Context, o *order.Order, rma *returns.ReturnRequest, amount decimal.Decimal) DispatchResult {
	switch rma.RefundMethod {
	case returns.RefundMethodWallet:
		if amount.IsPositive() {
			err := d.wallet.Credit(ctx, finance.WalletCredit{
				StoreID:    o.StoreID,
				CustomerID: o.CustomerID,
				Reference:  rma.RMANumber,
				Amount:     amount,
				Currency:   o.Currency,
			})
			if err != nil {
				return DispatchResult{ErrorReason: err.Error(), RefundStatus: returns.RefundStatusPending}
			}
		}
		return DispatchResult{Success: true, RefundStatus: returns.RefundStatusCompleted}
	default:
		// Cash collected on delivery cannot be pushed back electronically;
		// it is settled out of band.
		d.logger.Info("COD refund left pending for manual settlement",
			zap.String("rma_number", rma.RMANumber),
			zap.String("refund_method", string(rma.RefundMethod)),
			zap.String("amount", amount.String()),
		)
		return DispatchResult{Success: true, RefundStatus: returns.RefundStatusPending}
	}
}
