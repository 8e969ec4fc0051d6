package models

import (
	"time"

	"github.com/erp/returns/internal/domain/returns"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnRequestModel is the persistence model for the RMA aggregate root
type ReturnRequestModel struct {
	StoreAggregateModel
	RMANumber        string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Type             string          `gorm:"type:varchar(8);not null"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID       *uuid.UUID      `gorm:"type:uuid;index"`
	Status           string          `gorm:"type:varchar(20);not null;index"`
	RefundMethod     string          `gorm:"type:varchar(20);not null"`
	RefundAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RefundStatus     string          `gorm:"type:varchar(20);not null"`
	ProviderRefundID string          `gorm:"type:varchar(128)"`
	CreditNoteID     *uuid.UUID      `gorm:"type:uuid"`
	RejectionReason  string          `gorm:"type:text"`
	RequestedAt      time.Time       `gorm:"not null"`
	RequestedBy      uuid.UUID       `gorm:"type:uuid;not null"`
	ApprovedAt       *time.Time
	ApprovedBy       *uuid.UUID `gorm:"type:uuid"`
	PickedUpAt       *time.Time
	PickedUpBy       *uuid.UUID `gorm:"type:uuid"`
	RejectedAt       *time.Time
	RejectedBy       *uuid.UUID `gorm:"type:uuid"`
	ReceivedAt       *time.Time
	ReceivedBy       *uuid.UUID        `gorm:"type:uuid"`
	Lines            []ReturnLineModel `gorm:"foreignKey:RMAID;references:ID"`
}

// TableName returns the table name for GORM
func (ReturnRequestModel) TableName() string {
	return "return_requests"
}

// ReturnLineModel stores one line. The shipping_* columns are the snapshot
// frozen at approval and stay empty until then.
type ReturnLineModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RMAID            uuid.UUID       `gorm:"column:rma_id;type:uuid;not null;index"`
	Position         int             `gorm:"not null"`
	OrderItemID      uuid.UUID       `gorm:"type:uuid;not null"`
	VariantID        uuid.UUID       `gorm:"type:uuid;not null"`
	SKU              string          `gorm:"column:sku;type:varchar(64)"`
	OriginID         uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity         int             `gorm:"not null"`
	OrderedQuantity  int             `gorm:"not null"`
	ReasonCode       string          `gorm:"type:varchar(64)"`
	Condition        string          `gorm:"type:varchar(20);not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RefundAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ShippingPayer    string          `gorm:"type:varchar(20)"`
	ShippingAmount   decimal.Decimal `gorm:"type:decimal(18,2)"`
	ShippingRuleID   *uuid.UUID      `gorm:"type:uuid"`
	ShippingScope    string          `gorm:"type:varchar(20)"`
	ShippingFrozenAt *time.Time
}

// TableName returns the table name for GORM
func (ReturnLineModel) TableName() string {
	return "return_lines"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *ReturnRequestModel) ToDomain() *returns.ReturnRequest {
	lines := make([]returns.ReturnLine, len(m.Lines))
	for i := range m.Lines {
		lines[i] = m.Lines[i].ToDomain()
	}
	return returns.Reconstruct(returns.ReturnRequest{
		StoreAggregateRoot: m.ToDomainStoreAggregateRoot(),
		RMANumber:          m.RMANumber,
		Type:               returns.Type(m.Type),
		OrderID:            m.OrderID,
		CustomerID:         m.CustomerID,
		Status:             returns.Status(m.Status),
		RefundMethod:       returns.RefundMethod(m.RefundMethod),
		RefundAmount:       m.RefundAmount,
		RefundStatus:       returns.RefundStatus(m.RefundStatus),
		ProviderRefundID:   m.ProviderRefundID,
		CreditNoteID:       m.CreditNoteID,
		RejectionReason:    m.RejectionReason,
		RequestedAt:        m.RequestedAt,
		RequestedBy:        m.RequestedBy,
		ApprovedAt:         m.ApprovedAt,
		ApprovedBy:         m.ApprovedBy,
		PickedUpAt:         m.PickedUpAt,
		PickedUpBy:         m.PickedUpBy,
		RejectedAt:         m.RejectedAt,
		RejectedBy:         m.RejectedBy,
		ReceivedAt:         m.ReceivedAt,
		ReceivedBy:         m.ReceivedBy,
	}, lines)
}

// ReturnRequestModelFromDomain creates a persistence model from the aggregate
func ReturnRequestModelFromDomain(r *returns.ReturnRequest) *ReturnRequestModel {
	m := &ReturnRequestModel{
		RMANumber:        r.RMANumber,
		Type:             string(r.Type),
		OrderID:          r.OrderID,
		CustomerID:       r.CustomerID,
		Status:           string(r.Status),
		RefundMethod:     string(r.RefundMethod),
		RefundAmount:     r.RefundAmount,
		RefundStatus:     string(r.RefundStatus),
		ProviderRefundID: r.ProviderRefundID,
		CreditNoteID:     r.CreditNoteID,
		RejectionReason:  r.RejectionReason,
		RequestedAt:      r.RequestedAt,
		RequestedBy:      r.RequestedBy,
		ApprovedAt:       r.ApprovedAt,
		ApprovedBy:       r.ApprovedBy,
		PickedUpAt:       r.PickedUpAt,
		PickedUpBy:       r.PickedUpBy,
		RejectedAt:       r.RejectedAt,
		RejectedBy:       r.RejectedBy,
		ReceivedAt:       r.ReceivedAt,
		ReceivedBy:       r.ReceivedBy,
	}
	m.FromDomainStoreAggregateRoot(r.StoreAggregateRoot)
	for i, l := range r.Lines() {
		m.Lines = append(m.Lines, ReturnLineModelFromDomain(r.ID, i, l))
	}
	return m
}

// ReturnLineModelFromDomain flattens either line variant into one row
func ReturnLineModelFromDomain(rmaID uuid.UUID, position int, l returns.ReturnLine) ReturnLineModel {
	d := l.Details()
	m := ReturnLineModel{
		ID:              d.ID,
		RMAID:           rmaID,
		Position:        position,
		OrderItemID:     d.OrderItemID,
		VariantID:       d.VariantID,
		SKU:             d.SKU,
		OriginID:        d.OriginID,
		Quantity:        d.Quantity,
		OrderedQuantity: d.OrderedQuantity,
		ReasonCode:      d.ReasonCode,
		Condition:       string(d.Condition),
		UnitPrice:       d.UnitPrice,
		RefundAmount:    d.RefundAmount,
	}
	if a, ok := l.(returns.ApprovedLine); ok {
		frozen := a.Shipping.FrozenAt
		m.ShippingPayer = string(a.Shipping.Payer)
		m.ShippingAmount = a.Shipping.Amount
		m.ShippingRuleID = a.Shipping.RuleID
		m.ShippingScope = string(a.Shipping.RuleScope)
		m.ShippingFrozenAt = &frozen
	}
	return m
}

// ToDomain returns an ApprovedLine when a snapshot was frozen, a RequestedLine otherwise
func (m *ReturnLineModel) ToDomain() returns.ReturnLine {
	line := returns.RequestedLine{
		ID:              m.ID,
		OrderItemID:     m.OrderItemID,
		VariantID:       m.VariantID,
		SKU:             m.SKU,
		OriginID:        m.OriginID,
		Quantity:        m.Quantity,
		OrderedQuantity: m.OrderedQuantity,
		ReasonCode:      m.ReasonCode,
		Condition:       returns.Condition(m.Condition),
		UnitPrice:       m.UnitPrice,
		RefundAmount:    m.RefundAmount,
	}
	if m.ShippingPayer == "" || m.ShippingFrozenAt == nil {
		return line
	}
	return line.Approve(returns.ReturnShippingSnapshot{
		Payer:     returns.Payer(m.ShippingPayer),
		Amount:    m.ShippingAmount,
		RuleID:    m.ShippingRuleID,
		RuleScope: returns.RuleScope(m.ShippingScope),
		FrozenAt:  *m.ShippingFrozenAt,
	})
}

// ShippingRuleModel is a configured return-shipping rule
type ShippingRuleModel struct {
	ID             uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	StoreID        uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Scope          string                     `gorm:"type:varchar(20);not null"`
	SKU            string                     `gorm:"column:sku;type:varchar(64)"`
	CategoryID     *uuid.UUID                 `gorm:"type:uuid"`
	Payer          string                     `gorm:"type:varchar(20);not null"`
	Mode           string                     `gorm:"type:varchar(32);not null"`
	Amount         decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	Percent        decimal.Decimal            `gorm:"type:decimal(7,4);not null"`
	ZoneSurcharges   map[string]decimal.Decimal    `gorm:"serializer:json"`
	OriginSurcharges map[uuid.UUID]decimal.Decimal `gorm:"serializer:json"`
	Active           bool                          `gorm:"not null;default:true"`
	CreatedAt        time.Time                     `gorm:"not null"`
	UpdatedAt        time.Time                     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShippingRuleModel) TableName() string {
	return "return_shipping_rules"
}

// ToDomain converts the persistence model to a domain ShippingRule
func (m *ShippingRuleModel) ToDomain() returns.ShippingRule {
	return returns.ShippingRule{
		ID:             m.ID,
		StoreID:        m.StoreID,
		Scope:          returns.RuleScope(m.Scope),
		SKU:            m.SKU,
		CategoryID:     m.CategoryID,
		Payer:          returns.Payer(m.Payer),
		Mode:           returns.CostMode(m.Mode),
		Amount:         m.Amount,
		Percent:        m.Percent,
		ZoneSurcharges:   m.ZoneSurcharges,
		OriginSurcharges: m.OriginSurcharges,
		Active:           m.Active,
		UpdatedAt:        m.UpdatedAt,
	}
}

// ShippingRuleModelFromDomain creates a persistence model from a domain rule
func ShippingRuleModelFromDomain(r returns.ShippingRule) *ShippingRuleModel {
	return &ShippingRuleModel{
		ID:             r.ID,
		StoreID:        r.StoreID,
		Scope:          string(r.Scope),
		SKU:            r.SKU,
		CategoryID:     r.CategoryID,
		Payer:          string(r.Payer),
		Mode:           string(r.Mode),
		Amount:         r.Amount,
		Percent:        r.Percent,
		ZoneSurcharges:   r.ZoneSurcharges,
		OriginSurcharges: r.OriginSurcharges,
		Active:           r.Active,
		CreatedAt:        r.UpdatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
