package models

import (
	"time"

	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/shared/valueobject"
	"github.com/erp/returns/internal/domain/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddressModel is an address stored as prefixed columns on its owner
type AddressModel struct {
	Line1      string `gorm:"type:varchar(255)"`
	City       string `gorm:"type:varchar(128)"`
	Region     string `gorm:"type:varchar(128)"`
	PostalCode string `gorm:"type:varchar(32)"`
	Country    string `gorm:"type:varchar(2)"`
}

func (a AddressModel) toDomain() valueobject.Address {
	return valueobject.Address{Line1: a.Line1, City: a.City, Region: a.Region, PostalCode: a.PostalCode, Country: a.Country}
}

func addressFromDomain(a valueobject.Address) AddressModel {
	return AddressModel{Line1: a.Line1, City: a.City, Region: a.Region, PostalCode: a.PostalCode, Country: a.Country}
}

// OrderModel is the persistence model for a placed order. The returns
// service only writes status, version and item returned quantities.
type OrderModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number           string          `gorm:"type:varchar(64);not null"`
	CustomerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentMethod    string          `gorm:"type:varchar(20);not null"`
	PaymentReference string          `gorm:"type:varchar(128)"`
	Status           string          `gorm:"type:varchar(30);not null"`
	DeliveredAt      *time.Time
	Subtotal         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Tax              decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency         string          `gorm:"type:varchar(3);not null"`
	ShippingAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ShippingZone     string          `gorm:"type:varchar(64)"`
	ShippingCarrier  string          `gorm:"type:varchar(64)"`
	ShipTo           AddressModel    `gorm:"embedded;embeddedPrefix:ship_to_"`
	Version          int             `gorm:"not null;default:1"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
	Items            []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is one line of an order
type OrderItemModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID           uuid.UUID       `gorm:"type:uuid;not null"`
	SKU                 string          `gorm:"column:sku;type:varchar(64)"`
	CategoryID          *uuid.UUID      `gorm:"type:uuid"`
	Quantity            int             `gorm:"not null"`
	ReturnedQuantity    int             `gorm:"not null;default:0"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	FulfillmentOriginID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		ID:               m.ID,
		StoreID:          m.StoreID,
		Number:           m.Number,
		CustomerID:       m.CustomerID,
		PaymentMethod:    order.PaymentMethod(m.PaymentMethod),
		PaymentReference: m.PaymentReference,
		Status:           order.Status(m.Status),
		DeliveredAt:      m.DeliveredAt,
		Subtotal:         m.Subtotal,
		Tax:              m.Tax,
		Total:            m.Total,
		Currency:         m.Currency,
		Shipping: order.ShippingSnapshot{
			Amount:  m.ShippingAmount,
			Zone:    m.ShippingZone,
			Carrier: m.ShippingCarrier,
		},
		ShippingAddress: m.ShipTo.toDomain(),
		Version:         m.Version,
		UpdatedAt:       m.UpdatedAt,
	}
	for _, it := range m.Items {
		o.Items = append(o.Items, order.Item{
			ID:                  it.ID,
			VariantID:           it.VariantID,
			SKU:                 it.SKU,
			CategoryID:          it.CategoryID,
			Quantity:            it.Quantity,
			ReturnedQuantity:    it.ReturnedQuantity,
			UnitPrice:           it.UnitPrice,
			FulfillmentOriginID: it.FulfillmentOriginID,
		})
	}
	return o
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		ID:               o.ID,
		StoreID:          o.StoreID,
		Number:           o.Number,
		CustomerID:       o.CustomerID,
		PaymentMethod:    string(o.PaymentMethod),
		PaymentReference: o.PaymentReference,
		Status:           string(o.Status),
		DeliveredAt:      o.DeliveredAt,
		Subtotal:         o.Subtotal,
		Tax:              o.Tax,
		Total:            o.Total,
		Currency:         o.Currency,
		ShippingAmount:   o.Shipping.Amount,
		ShippingZone:     o.Shipping.Zone,
		ShippingCarrier:  o.Shipping.Carrier,
		ShipTo:           addressFromDomain(o.ShippingAddress),
		Version:          o.Version,
		CreatedAt:        o.UpdatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for _, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			ID:                  it.ID,
			OrderID:             o.ID,
			VariantID:           it.VariantID,
			SKU:                 it.SKU,
			CategoryID:          it.CategoryID,
			Quantity:            it.Quantity,
			ReturnedQuantity:    it.ReturnedQuantity,
			UnitPrice:           it.UnitPrice,
			FulfillmentOriginID: it.FulfillmentOriginID,
		})
	}
	return m
}

// StoreModel is the persistence model for a store
type StoreModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code             string    `gorm:"type:varchar(16);not null;uniqueIndex"`
	Name             string    `gorm:"type:varchar(255);not null"`
	ReturnWindowDays int       `gorm:"not null;default:0"`
	Currency         string    `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (StoreModel) TableName() string {
	return "stores"
}

// ToDomain converts the persistence model to a domain Store
func (m *StoreModel) ToDomain() *store.Store {
	return &store.Store{
		ID:               m.ID,
		Code:             m.Code,
		Name:             m.Name,
		ReturnWindowDays: m.ReturnWindowDays,
		Currency:         m.Currency,
	}
}

// StoreModelFromDomain creates a persistence model from a domain Store
func StoreModelFromDomain(s *store.Store) *StoreModel {
	return &StoreModel{
		ID:               s.ID,
		Code:             s.Code,
		Name:             s.Name,
		ReturnWindowDays: s.ReturnWindowDays,
		Currency:         s.Currency,
	}
}
