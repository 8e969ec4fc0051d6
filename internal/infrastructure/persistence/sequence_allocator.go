package persistence

import (
	"context"
	"fmt"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceAllocator draws document numbers from the sequence_counters
// table. The upsert takes a row lock that is held until the surrounding
// transaction ends, so two transitions can never read the same value and a
// rolled-back transition gives its number back.
type GormSequenceAllocator struct {
	db *gorm.DB
}

// NewGormSequenceAllocator creates a new GormSequenceAllocator
func NewGormSequenceAllocator(db *gorm.DB) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db}
}

// Next increments and returns the counter for (scope, store, year), starting at 1
func (a *GormSequenceAllocator) Next(ctx context.Context, scope string, storeID uuid.UUID, year int) (int64, error) {
	db := a.db.WithContext(ctx)
	row := models.SequenceCounterModel{Scope: scope, StoreID: storeID, Year: year, Value: 1}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}, {Name: "store_id"}, {Name: "year"}},
		DoUpdates: clause.Set{{
			Column: clause.Column{Name: "value"},
			Value:  gorm.Expr("sequence_counters.value + 1"),
		}},
	}).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("advance %s sequence: %w", scope, err)
	}

	var values []int64
	if err := db.Model(&models.SequenceCounterModel{}).
		Where("scope = ? AND store_id = ? AND year = ?", scope, storeID, year).
		Pluck("value", &values).Error; err != nil {
		return 0, fmt.Errorf("read %s sequence: %w", scope, err)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("read %s sequence: counter row missing", scope)
	}
	return values[0], nil
}

var _ shared.SequenceAllocator = (*GormSequenceAllocator)(nil)
