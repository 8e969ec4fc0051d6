package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RMASortFields contains allowed sort fields for return requests
var RMASortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"requested_at":  true,
	"rma_number":    true,
	"status":        true,
	"refund_amount": true,
}

var openStatuses = []string{
	string(returns.StatusRequested),
	string(returns.StatusApproved),
	string(returns.StatusPickedUp),
}

// GormReturnRequestRepository implements returns.Repository using GORM
type GormReturnRequestRepository struct {
	db *gorm.DB
}

// NewGormReturnRequestRepository creates a new GormReturnRequestRepository
func NewGormReturnRequestRepository(db *gorm.DB) *GormReturnRequestRepository {
	return &GormReturnRequestRepository{db: db}
}

func linesByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByIDForStore loads an RMA with its lines
func (r *GormReturnRequestRepository) FindByIDForStore(ctx context.Context, storeID, id uuid.UUID) (*returns.ReturnRequest, error) {
	var m models.ReturnRequestModel
	err := r.db.WithContext(ctx).
		Preload("Lines", linesByPosition).
		Where("store_id = ? AND id = ?", storeID, id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAllForStore lists a store's RMAs matching the filter, with the total before paging
func (r *GormReturnRequestRepository) FindAllForStore(ctx context.Context, storeID uuid.UUID, filter returns.ListFilter) ([]*returns.ReturnRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ReturnRequestModel{}).Where("store_id = ?", storeID)
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, RMASortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.ReturnRequestModel
	if err := query.Preload("Lines", linesByPosition).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toReturnRequests(rows), total, nil
}

// FindOpenByOrder returns RMAs of the order that are neither received nor rejected
func (r *GormReturnRequestRepository) FindOpenByOrder(ctx context.Context, storeID, orderID uuid.UUID) ([]*returns.ReturnRequest, error) {
	var rows []models.ReturnRequestModel
	err := r.db.WithContext(ctx).
		Preload("Lines", linesByPosition).
		Where("store_id = ? AND order_id = ? AND status IN ?", storeID, orderID, openStatuses).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toReturnRequests(rows), nil
}

// Create inserts the RMA and its lines
func (r *GormReturnRequestRepository) Create(ctx context.Context, rma *returns.ReturnRequest) error {
	m := models.ReturnRequestModelFromDomain(rma)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists.WithMessage("RMA number " + rma.RMANumber + " is already taken")
		}
		return err
	}
	return nil
}

// SaveWithLock persists a transition guarded by the stored version.
// Lines are rewritten in place; an RMA never gains or loses lines.
func (r *GormReturnRequestRepository) SaveWithLock(ctx context.Context, rma *returns.ReturnRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := models.ReturnRequestModelFromDomain(rma)
		next := rma.Version + 1

		result := tx.Model(&models.ReturnRequestModel{}).
			Where("id = ? AND store_id = ? AND version = ?", rma.ID, rma.StoreID, rma.Version).
			Updates(map[string]any{
				"status":             m.Status,
				"refund_amount":      m.RefundAmount,
				"refund_status":      m.RefundStatus,
				"provider_refund_id": m.ProviderRefundID,
				"credit_note_id":     m.CreditNoteID,
				"rejection_reason":   m.RejectionReason,
				"approved_at":        m.ApprovedAt,
				"approved_by":        m.ApprovedBy,
				"picked_up_at":       m.PickedUpAt,
				"picked_up_by":       m.PickedUpBy,
				"rejected_at":        m.RejectedAt,
				"rejected_by":        m.RejectedBy,
				"received_at":        m.ReceivedAt,
				"received_by":        m.ReceivedBy,
				"version":            next,
				"updated_at":         time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range m.Lines {
			if err := tx.Save(&m.Lines[i]).Error; err != nil {
				return err
			}
		}

		rma.IncrementVersion()
		return nil
	})
}

func toReturnRequests(rows []models.ReturnRequestModel) []*returns.ReturnRequest {
	out := make([]*returns.ReturnRequest, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ returns.Repository = (*GormReturnRequestRepository)(nil)
