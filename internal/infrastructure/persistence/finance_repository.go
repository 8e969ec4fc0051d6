package persistence

import (
	"context"
	"errors"

	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements finance.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByOrder loads the invoice issued for an order
func (r *GormInvoiceRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*finance.Invoice, error) {
	var m models.InvoiceModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// GormCreditNoteRepository implements finance.CreditNoteRepository using GORM
type GormCreditNoteRepository struct {
	db *gorm.DB
}

// NewGormCreditNoteRepository creates a new GormCreditNoteRepository
func NewGormCreditNoteRepository(db *gorm.DB) *GormCreditNoteRepository {
	return &GormCreditNoteRepository{db: db}
}

// Create inserts a credit note. A second note for the same RMA is rejected.
func (r *GormCreditNoteRepository) Create(ctx context.Context, cn *finance.CreditNote) error {
	if err := r.db.WithContext(ctx).Create(models.CreditNoteModelFromDomain(cn)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists.WithMessage("credit note already issued for this return")
		}
		return err
	}
	return nil
}

// FindByRMA loads the credit note issued for a return
func (r *GormCreditNoteRepository) FindByRMA(ctx context.Context, rmaID uuid.UUID) (*finance.CreditNote, error) {
	var m models.CreditNoteModel
	if err := r.db.WithContext(ctx).Where("rma_id = ?", rmaID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

var (
	_ finance.InvoiceRepository    = (*GormInvoiceRepository)(nil)
	_ finance.CreditNoteRepository = (*GormCreditNoteRepository)(nil)
)
