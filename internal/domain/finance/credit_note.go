package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SequenceScopeCreditNote is the counter scope credit note numbers are drawn from
const SequenceScopeCreditNote = "credit_note"

// Invoice is the customer invoice issued for an order
type Invoice struct {
	ID       uuid.UUID
	StoreID  uuid.UUID
	OrderID  uuid.UUID
	Number   string
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Currency string
	IssuedAt time.Time
}

// CreditNoteStatus is the status of a credit note. Notes are born issued
// and never change afterwards.
type CreditNoteStatus string

const CreditNoteStatusIssued CreditNoteStatus = "issued"

// CreditNote offsets part of an invoice. Subtotal, Tax and Total are negative.
type CreditNote struct {
	ID        uuid.UUID
	StoreID   uuid.UUID
	InvoiceID uuid.UUID
	OrderID   uuid.UUID
	RMAID     uuid.UUID
	Number    string
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	Currency  string
	Status    CreditNoteStatus
	IssuedAt  time.Time
}

// CreditNoteParams holds the values a credit note is issued with.
// Subtotal and Tax are given as positive amounts. A zero IssuedAt means now.
type CreditNoteParams struct {
	Invoice  *Invoice
	RMAID    uuid.UUID
	Number   string
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	IssuedAt time.Time
}

// NewCreditNote issues a credit note against an invoice
func NewCreditNote(p CreditNoteParams) (*CreditNote, error) {
	if p.Invoice == nil {
		return nil, shared.ErrInvalidInput.WithMessage("credit note requires an invoice")
	}
	if p.Number == "" {
		return nil, shared.ErrInvalidInput.WithMessage("credit note number is required")
	}
	if p.Subtotal.IsNegative() || p.Tax.IsNegative() {
		return nil, shared.ErrInvalidInput.WithMessage("credit note amounts are given as positive values")
	}
	issuedAt := p.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}
	return &CreditNote{
		ID:        uuid.New(),
		StoreID:   p.Invoice.StoreID,
		InvoiceID: p.Invoice.ID,
		OrderID:   p.Invoice.OrderID,
		RMAID:     p.RMAID,
		Number:    p.Number,
		Subtotal:  p.Subtotal.Neg(),
		Tax:       p.Tax.Neg(),
		Total:     p.Subtotal.Add(p.Tax).Neg(),
		Currency:  p.Invoice.Currency,
		Status:    CreditNoteStatusIssued,
		IssuedAt:  issuedAt,
	}, nil
}

// FormatCreditNoteNumber renders CN-{STORECODE}-{YYYY}-{0001}
func FormatCreditNoteNumber(storeCode string, year int, seq int64) string {
	return fmt.Sprintf("CN-%s-%04d-%04d", strings.ToUpper(storeCode), year, seq)
}

// InvoiceRepository reads invoices
type InvoiceRepository interface {
	// FindByOrder returns shared.ErrNotFound when the order was never invoiced
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*Invoice, error)
}

// CreditNoteRepository writes credit notes; there is no update
type CreditNoteRepository interface {
	Create(ctx context.Context, cn *CreditNote) error
	FindByRMA(ctx context.Context, rmaID uuid.UUID) (*CreditNote, error)
}
