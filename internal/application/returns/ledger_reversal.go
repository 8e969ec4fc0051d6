package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/returns/internal/domain/ledger"
	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerReversal books the negative ledger entries a received return implies
type LedgerReversal struct {
	logger *zap.Logger
}

// NewLedgerReversal creates a LedgerReversal
func NewLedgerReversal(logger *zap.Logger) *LedgerReversal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerReversal{logger: logger}
}

// Reverse appends one RETURN_SHIPPING debit per line whose shipping is not
// paid by the customer, then claws back refund from each party in the
// proportions of the order's original split. The shares always sum to the
// refund exactly.
func (l *LedgerReversal) Reverse(ctx context.Context, repo ledger.Repository, o *order.Order, rma *returns.ReturnRequest, lines []returns.ApprovedLine, refund decimal.Decimal, now time.Time) ([]*ledger.Entry, error) {
	split, err := repo.FindSplitByOrder(ctx, o.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("load payment split: %w", err)
	}
	currency := o.Currency
	if split != nil && split.Currency != "" {
		currency = split.Currency
	}

	base := ledger.ReversalParams{
		StoreID:   o.StoreID,
		OrderID:   o.ID,
		RMAID:     rma.ID,
		Currency:  currency,
		Reference: rma.RMANumber,
		Now:       now,
	}

	var entries []*ledger.Entry
	for _, line := range lines {
		if line.Shipping.CustomerPays() || !line.Shipping.Amount.IsPositive() {
			continue
		}
		p := base
		p.Party = ledger.Party(line.Shipping.Payer)
		if split != nil {
			p.PartyID = split.PartyID(p.Party)
		}
		p.Type = ledger.EntryTypeReturnShipping
		p.Amount = valueobject.RoundMoney(line.Shipping.Amount)
		e, err := ledger.NewReversalEntry(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if split == nil {
		l.logger.Warn("no payment split for order, refund clawback skipped",
			zap.String("order_id", o.ID.String()),
			zap.String("rma_number", rma.RMANumber),
		)
	} else if refund.IsPositive() {
		shares := split.Shares()
		weights := make([]decimal.Decimal, len(shares))
		for i, s := range shares {
			weights[i] = s.Amount
		}
		for i, amount := range valueobject.SplitByWeights(refund, weights) {
			if !amount.IsPositive() {
				continue
			}
			p := base
			p.Party = shares[i].Party
			p.PartyID = shares[i].PartyID
			p.Type = ledger.EntryTypeRefundClawback
			p.Amount = amount
			e, err := ledger.NewReversalEntry(p)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}

	if len(entries) == 0 {
		return nil, nil
	}
	if err := repo.Append(ctx, entries...); err != nil {
		return nil, fmt.Errorf("append ledger entries: %w", err)
	}
	return entries, nil
}
