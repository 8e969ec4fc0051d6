package persistence

import (
	"context"

	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShippingRuleRepository implements returns.ShippingRuleRepository using GORM
type GormShippingRuleRepository struct {
	db *gorm.DB
}

// NewGormShippingRuleRepository creates a new GormShippingRuleRepository
func NewGormShippingRuleRepository(db *gorm.DB) *GormShippingRuleRepository {
	return &GormShippingRuleRepository{db: db}
}

// FindActiveForStore returns every active rule of the store, newest first
func (r *GormShippingRuleRepository) FindActiveForStore(ctx context.Context, storeID uuid.UUID) ([]returns.ShippingRule, error) {
	var rows []models.ShippingRuleModel
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND active = ?", storeID, true).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]returns.ShippingRule, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ returns.ShippingRuleRepository = (*GormShippingRuleRepository)(nil)
