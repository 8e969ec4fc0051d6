package models

import (
	"time"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// StoreAggregateModel carries the fields of a store-scoped aggregate root,
// including the version used for optimistic locking.
type StoreAggregateModel struct {
	BaseModel
	StoreID uuid.UUID `gorm:"type:uuid;not null;index"`
	Version int       `gorm:"not null;default:1"`
}

// FromDomainStoreAggregateRoot populates the model from a domain StoreAggregateRoot
func (m *StoreAggregateModel) FromDomainStoreAggregateRoot(a shared.StoreAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.StoreID = a.StoreID
	m.Version = a.Version
}

// ToDomainStoreAggregateRoot rebuilds the domain StoreAggregateRoot
func (m *StoreAggregateModel) ToDomainStoreAggregateRoot() shared.StoreAggregateRoot {
	return shared.StoreAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		StoreID: m.StoreID,
	}
}
