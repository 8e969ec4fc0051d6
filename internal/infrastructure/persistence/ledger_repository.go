package persistence

import (
	"context"
	"errors"

	"github.com/erp/returns/internal/domain/ledger"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerRepository implements ledger.Repository using GORM.
// Entries are only ever inserted.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// FindSplitByOrder loads the payment split recorded at sale time
func (r *GormLedgerRepository) FindSplitByOrder(ctx context.Context, orderID uuid.UUID) (*ledger.PaymentSplit, error) {
	var m models.PaymentSplitModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// Append inserts entries in one statement
func (r *GormLedgerRepository) Append(ctx context.Context, entries ...*ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.LedgerEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.LedgerEntryModelFromDomain(e)
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// FindByRMA lists the entries booked for a return
func (r *GormLedgerRepository) FindByRMA(ctx context.Context, rmaID uuid.UUID) ([]*ledger.Entry, error) {
	var rows []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).Where("rma_id = ?", rmaID).Order("created_at ASC, type ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*ledger.Entry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ ledger.Repository = (*GormLedgerRepository)(nil)
