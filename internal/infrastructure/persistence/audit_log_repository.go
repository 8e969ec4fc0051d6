package persistence

import (
	"context"

	appreturns "github.com/erp/returns/internal/application/returns"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditLogRepository stores the RMA audit trail
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Record inserts one audit row
func (r *GormAuditLogRepository) Record(ctx context.Context, e appreturns.AuditEntry) error {
	return r.db.WithContext(ctx).Create(&models.AuditLogModel{
		ID:         e.ID,
		StoreID:    e.StoreID,
		RMAID:      e.RMAID,
		RMANumber:  e.RMANumber,
		Action:     e.Action,
		Status:     string(e.Status),
		ActorID:    e.ActorID,
		Detail:     e.Detail,
		OccurredAt: e.OccurredAt,
	}).Error
}

// FindByRMA lists the audit trail of a return, oldest first
func (r *GormAuditLogRepository) FindByRMA(ctx context.Context, storeID, rmaID uuid.UUID) ([]appreturns.AuditEntry, error) {
	var rows []models.AuditLogModel
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND rma_id = ?", storeID, rmaID).
		Order("occurred_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]appreturns.AuditEntry, len(rows))
	for i, m := range rows {
		out[i] = appreturns.AuditEntry{
			ID:         m.ID,
			StoreID:    m.StoreID,
			RMAID:      m.RMAID,
			RMANumber:  m.RMANumber,
			Action:     m.Action,
			Status:     returns.Status(m.Status),
			ActorID:    m.ActorID,
			Detail:     m.Detail,
			OccurredAt: m.OccurredAt,
		}
	}
	return out, nil
}

var _ appreturns.AuditSink = (*GormAuditLogRepository)(nil)
