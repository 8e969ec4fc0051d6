package models

import (
	"time"

	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the sales invoice issued for an order
type InvoiceModel struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Number   string          `gorm:"type:varchar(64);not null"`
	Subtotal decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Tax      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency string          `gorm:"type:varchar(3);not null"`
	IssuedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	return &finance.Invoice{
		ID:       m.ID,
		StoreID:  m.StoreID,
		OrderID:  m.OrderID,
		Number:   m.Number,
		Subtotal: m.Subtotal,
		Tax:      m.Tax,
		Total:    m.Total,
		Currency: m.Currency,
		IssuedAt: m.IssuedAt,
	}
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(i *finance.Invoice) *InvoiceModel {
	return &InvoiceModel{
		ID:       i.ID,
		StoreID:  i.StoreID,
		OrderID:  i.OrderID,
		Number:   i.Number,
		Subtotal: i.Subtotal,
		Tax:      i.Tax,
		Total:    i.Total,
		Currency: i.Currency,
		IssuedAt: i.IssuedAt,
	}
}

// CreditNoteModel is the accounting document issued for a refunded return
type CreditNoteModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null"`
	RMAID     uuid.UUID       `gorm:"column:rma_id;type:uuid;not null;uniqueIndex"`
	Number    string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Tax       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency  string          `gorm:"type:varchar(3);not null"`
	Status    string          `gorm:"type:varchar(20);not null"`
	IssuedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CreditNoteModel) TableName() string {
	return "credit_notes"
}

// ToDomain converts the persistence model to a domain CreditNote
func (m *CreditNoteModel) ToDomain() *finance.CreditNote {
	return &finance.CreditNote{
		ID:        m.ID,
		StoreID:   m.StoreID,
		InvoiceID: m.InvoiceID,
		OrderID:   m.OrderID,
		RMAID:     m.RMAID,
		Number:    m.Number,
		Subtotal:  m.Subtotal,
		Tax:       m.Tax,
		Total:     m.Total,
		Currency:  m.Currency,
		Status:    finance.CreditNoteStatus(m.Status),
		IssuedAt:  m.IssuedAt,
	}
}

// CreditNoteModelFromDomain creates a persistence model from a domain CreditNote
func CreditNoteModelFromDomain(cn *finance.CreditNote) *CreditNoteModel {
	return &CreditNoteModel{
		ID:        cn.ID,
		StoreID:   cn.StoreID,
		InvoiceID: cn.InvoiceID,
		OrderID:   cn.OrderID,
		RMAID:     cn.RMAID,
		Number:    cn.Number,
		Subtotal:  cn.Subtotal,
		Tax:       cn.Tax,
		Total:     cn.Total,
		Currency:  cn.Currency,
		Status:    string(cn.Status),
		IssuedAt:  cn.IssuedAt,
	}
}

// PaymentSplitModel records how an order's value was divided at sale time
type PaymentSplitModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	SupplierID     *uuid.UUID      `gorm:"type:uuid"`
	ResellerID     *uuid.UUID      `gorm:"type:uuid"`
	SupplierAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ResellerAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PlatformAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency       string          `gorm:"type:varchar(3);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentSplitModel) TableName() string {
	return "payment_splits"
}

// ToDomain converts the persistence model to a domain PaymentSplit
func (m *PaymentSplitModel) ToDomain() *ledger.PaymentSplit {
	return &ledger.PaymentSplit{
		ID:             m.ID,
		StoreID:        m.StoreID,
		OrderID:        m.OrderID,
		SupplierID:     m.SupplierID,
		ResellerID:     m.ResellerID,
		SupplierAmount: m.SupplierAmount,
		ResellerAmount: m.ResellerAmount,
		PlatformAmount: m.PlatformAmount,
		Currency:       m.Currency,
		CreatedAt:      m.CreatedAt,
	}
}

// PaymentSplitModelFromDomain creates a persistence model from a domain PaymentSplit
func PaymentSplitModelFromDomain(s *ledger.PaymentSplit) *PaymentSplitModel {
	return &PaymentSplitModel{
		ID:             s.ID,
		StoreID:        s.StoreID,
		OrderID:        s.OrderID,
		SupplierID:     s.SupplierID,
		ResellerID:     s.ResellerID,
		SupplierAmount: s.SupplierAmount,
		ResellerAmount: s.ResellerAmount,
		PlatformAmount: s.PlatformAmount,
		Currency:       s.Currency,
		CreatedAt:      s.CreatedAt,
	}
}

// LedgerEntryModel is an append-only ledger row
type LedgerEntryModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	RMAID       uuid.UUID       `gorm:"column:rma_id;type:uuid;not null;index"`
	Party       string          `gorm:"type:varchar(20);not null"`
	PartyID     *uuid.UUID      `gorm:"type:uuid"`
	Type        string          `gorm:"type:varchar(32);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency    string          `gorm:"type:varchar(3);not null"`
	Reference   string          `gorm:"type:varchar(64)"`
	AvailableAt time.Time       `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		ID:          m.ID,
		StoreID:     m.StoreID,
		OrderID:     m.OrderID,
		RMAID:       m.RMAID,
		Party:       ledger.Party(m.Party),
		PartyID:     m.PartyID,
		Type:        ledger.EntryType(m.Type),
		Amount:      m.Amount,
		Currency:    m.Currency,
		Reference:   m.Reference,
		AvailableAt: m.AvailableAt,
		CreatedAt:   m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a persistence model from a domain Entry
func LedgerEntryModelFromDomain(e *ledger.Entry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:          e.ID,
		StoreID:     e.StoreID,
		OrderID:     e.OrderID,
		RMAID:       e.RMAID,
		Party:       string(e.Party),
		PartyID:     e.PartyID,
		Type:        string(e.Type),
		Amount:      e.Amount,
		Currency:    e.Currency,
		Reference:   e.Reference,
		AvailableAt: e.AvailableAt,
		CreatedAt:   e.CreatedAt,
	}
}
