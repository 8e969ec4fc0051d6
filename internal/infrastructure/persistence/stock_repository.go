package persistence

import (
	"context"
	"errors"

	"github.com/erp/returns/internal/domain/inventory"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockRepository implements inventory.Repository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// FindRecord loads the stock record of a variant at an origin
func (r *GormStockRepository) FindRecord(ctx context.Context, originID, variantID uuid.UUID) (*inventory.Record, error) {
	var m models.StockRecordModel
	err := r.db.WithContext(ctx).
		Where("origin_id = ? AND variant_id = ?", originID, variantID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// SaveRecord inserts a record with Version 0, otherwise updates it under a version check
func (r *GormStockRepository) SaveRecord(ctx context.Context, rec *inventory.Record) error {
	db := r.db.WithContext(ctx)
	if rec.Version == 0 {
		m := models.StockRecordModelFromDomain(rec)
		m.Version = 1
		if err := db.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrConcurrencyConflict
			}
			return err
		}
		rec.Version = 1
		return nil
	}

	result := db.Model(&models.StockRecordModel{}).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Updates(map[string]any{
			"available_stock": rec.AvailableStock,
			"version":         rec.Version + 1,
			"updated_at":      rec.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	rec.Version++
	return nil
}

// FindReserved lists reserved holds for the order line, oldest first
func (r *GormStockRepository) FindReserved(ctx context.Context, orderID, variantID, originID uuid.UUID) ([]*inventory.Reservation, error) {
	var rows []models.StockReservationModel
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND variant_id = ? AND origin_id = ? AND status = ?",
			orderID, variantID, originID, string(inventory.ReservationReserved)).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*inventory.Reservation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// SaveReservation writes back a released or shrunk hold
func (r *GormStockRepository) SaveReservation(ctx context.Context, res *inventory.Reservation) error {
	return r.db.WithContext(ctx).Save(models.StockReservationModelFromDomain(res)).Error
}

var _ inventory.Repository = (*GormStockRepository)(nil)
