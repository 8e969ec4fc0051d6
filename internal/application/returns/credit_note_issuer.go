package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/domain/shared/valueobject"
	"github.com/erp/returns/internal/domain/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreditNoteIssuer issues the credit note mirroring a refund
type CreditNoteIssuer struct {
	logger *zap.Logger
}

// NewCreditNoteIssuer creates a CreditNoteIssuer
func NewCreditNoteIssuer(logger *zap.Logger) *CreditNoteIssuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditNoteIssuer{logger: logger}
}

// ClawbackTax is refund / subtotal x tax, rounded to cents
func ClawbackTax(refund, subtotal, tax decimal.Decimal) decimal.Decimal {
	if subtotal.IsZero() {
		return decimal.Zero
	}
	return valueobject.RoundMoney(refund.Mul(tax).Div(subtotal))
}

// Issue writes a credit note against the order's invoice. It returns nil
// without error when the order was never invoiced or nothing is refunded.
func (c *CreditNoteIssuer) Issue(ctx context.Context, uow UnitOfWork, st *store.Store, o *order.Order, rma *returns.ReturnRequest, refund decimal.Decimal, now time.Time) (*finance.CreditNote, error) {
	if !refund.IsPositive() {
		return nil, nil
	}
	inv, err := uow.Invoices().FindByOrder(ctx, o.ID)
	if errors.Is(err, shared.ErrNotFound) {
		c.logger.Warn("order has no invoice, credit note skipped",
			zap.String("order_id", o.ID.String()),
			zap.String("rma_number", rma.RMANumber),
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}

	year := now.Year()
	seq, err := uow.Sequences().Next(ctx, finance.SequenceScopeCreditNote, st.ID, year)
	if err != nil {
		return nil, fmt.Errorf("allocate credit note number: %w", err)
	}

	cn, err := finance.NewCreditNote(finance.CreditNoteParams{
		Invoice:  inv,
		RMAID:    rma.ID,
		Number:   finance.FormatCreditNoteNumber(st.Code, year, seq),
		Subtotal: valueobject.RoundMoney(refund),
		Tax:      ClawbackTax(refund, o.Subtotal, o.Tax),
		IssuedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := uow.CreditNotes().Create(ctx, cn); err != nil {
		return nil, fmt.Errorf("save credit note: %w", err)
	}
	return cn, nil
}
