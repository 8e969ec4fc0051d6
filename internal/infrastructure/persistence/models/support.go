package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SequenceCounterModel holds the last number handed out per (scope, store, year)
type SequenceCounterModel struct {
	Scope   string    `gorm:"type:varchar(32);primaryKey"`
	StoreID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Year    int       `gorm:"primaryKey;autoIncrement:false"`
	Value   int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}

// AuditLogModel is one row of the RMA audit trail
type AuditLogModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	RMAID      uuid.UUID       `gorm:"column:rma_id;type:uuid;not null;index"`
	RMANumber  string          `gorm:"type:varchar(64);not null"`
	Action     string          `gorm:"type:varchar(32);not null"`
	Status     string          `gorm:"type:varchar(20);not null"`
	ActorID    *uuid.UUID      `gorm:"type:uuid"`
	Detail     json.RawMessage `gorm:"type:text"`
	OccurredAt time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "rma_audit_logs"
}
