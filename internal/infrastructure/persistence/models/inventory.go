package models

import (
	"time"

	"github.com/erp/returns/internal/domain/inventory"
	"github.com/google/uuid"
)

// StockRecordModel is sellable stock of one variant at one origin
type StockRecordModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OriginID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_origin_variant,priority:1"`
	VariantID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_origin_variant,priority:2"`
	AvailableStock int       `gorm:"not null;default:0"`
	Version        int       `gorm:"not null;default:1"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockRecordModel) TableName() string {
	return "stock_records"
}

// ToDomain converts the persistence model to a domain Record
func (m *StockRecordModel) ToDomain() *inventory.Record {
	return &inventory.Record{
		ID:             m.ID,
		OriginID:       m.OriginID,
		VariantID:      m.VariantID,
		AvailableStock: m.AvailableStock,
		Version:        m.Version,
		UpdatedAt:      m.UpdatedAt,
	}
}

// StockRecordModelFromDomain creates a persistence model from a domain Record
func StockRecordModelFromDomain(r *inventory.Record) *StockRecordModel {
	return &StockRecordModel{
		ID:             r.ID,
		OriginID:       r.OriginID,
		VariantID:      r.VariantID,
		AvailableStock: r.AvailableStock,
		Version:        r.Version,
		UpdatedAt:      r.UpdatedAt,
	}
}

// StockReservationModel is a stock hold against an order line
type StockReservationModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index:idx_reservation_line,priority:1"`
	VariantID  uuid.UUID `gorm:"type:uuid;not null;index:idx_reservation_line,priority:2"`
	OriginID   uuid.UUID `gorm:"type:uuid;not null;index:idx_reservation_line,priority:3"`
	Quantity   int       `gorm:"not null"`
	Status     string    `gorm:"type:varchar(20);not null"`
	ReleasedAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockReservationModel) TableName() string {
	return "stock_reservations"
}

// ToDomain converts the persistence model to a domain Reservation
func (m *StockReservationModel) ToDomain() *inventory.Reservation {
	return &inventory.Reservation{
		ID:         m.ID,
		OrderID:    m.OrderID,
		VariantID:  m.VariantID,
		OriginID:   m.OriginID,
		Quantity:   m.Quantity,
		Status:     inventory.ReservationStatus(m.Status),
		ReleasedAt: m.ReleasedAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// StockReservationModelFromDomain creates a persistence model from a domain Reservation
func StockReservationModelFromDomain(r *inventory.Reservation) *StockReservationModel {
	return &StockReservationModel{
		ID:         r.ID,
		OrderID:    r.OrderID,
		VariantID:  r.VariantID,
		OriginID:   r.OriginID,
		Quantity:   r.Quantity,
		Status:     string(r.Status),
		ReleasedAt: r.ReleasedAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
