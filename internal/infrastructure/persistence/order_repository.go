package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/domain/store"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByIDForStore loads the order with its items
func (r *GormOrderRepository) FindByIDForStore(ctx context.Context, storeID, id uuid.UUID) (*order.Order, error) {
	return r.find(ctx, storeID, id, false)
}

// FindByIDForStoreForUpdate loads the order and locks its row. SQLite has no
// row locks; its single writer connection already serializes transactions.
func (r *GormOrderRepository) FindByIDForStoreForUpdate(ctx context.Context, storeID, id uuid.UUID) (*order.Order, error) {
	return r.find(ctx, storeID, id, true)
}

func (r *GormOrderRepository) find(ctx context.Context, storeID, id uuid.UUID, lock bool) (*order.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("store_id = ? AND id = ?", storeID, id)
	if lock && r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m models.OrderModel
	err := query.First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// SaveReturnProgress writes status and returned quantities, guarded by version
func (r *GormOrderRepository) SaveReturnProgress(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND store_id = ? AND version = ?", o.ID, o.StoreID, o.Version).
			Updates(map[string]any{
				"status":     string(o.Status),
				"version":    o.Version + 1,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for _, it := range o.Items {
			if err := tx.Model(&models.OrderItemModel{}).
				Where("id = ? AND order_id = ?", it.ID, o.ID).
				Update("returned_quantity", it.ReturnedQuantity).Error; err != nil {
				return err
			}
		}

		o.Version++
		o.UpdatedAt = now
		return nil
	})
}

// GormStoreRepository implements store.Repository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// FindByID loads a store
func (r *GormStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Store, error) {
	var m models.StoreModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

var (
	_ order.Repository = (*GormOrderRepository)(nil)
	_ store.Repository = (*GormStoreRepository)(nil)
)
