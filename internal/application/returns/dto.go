package returns

import (
	"time"

	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestInput opens a return against an order
type RequestInput struct {
	StoreID      uuid.UUID
	OrderID      uuid.UUID
	CustomerID   *uuid.UUID
	ActorID      uuid.UUID
	Type         returns.Type
	RefundMethod returns.RefundMethod
	Lines        []LineRequest
}

// ListQuery filters List
type ListQuery struct {
	Status     returns.Status
	OrderID    *uuid.UUID
	CustomerID *uuid.UUID
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
}

func (q ListQuery) toFilter() returns.ListFilter {
	f := shared.DefaultFilter()
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.PageSize > 0 {
		f.PageSize = q.PageSize
	}
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	if q.OrderDir != "" {
		f.OrderDir = q.OrderDir
	}
	return returns.ListFilter{
		Filter:     f.Clamp(),
		Status:     q.Status,
		OrderID:    q.OrderID,
		CustomerID: q.CustomerID,
	}
}

// RMALineResponse is one line of an RMA
type RMALineResponse struct {
	ID              uuid.UUID                       `json:"id"`
	OrderItemID     uuid.UUID                       `json:"order_item_id"`
	VariantID       uuid.UUID                       `json:"variant_id"`
	SKU             string                          `json:"sku"`
	OriginID        uuid.UUID                       `json:"origin_id"`
	Quantity        int                             `json:"quantity"`
	OrderedQuantity int                             `json:"ordered_quantity"`
	ReasonCode      string                          `json:"reason_code,omitempty"`
	Condition       returns.Condition               `json:"condition"`
	UnitPrice       decimal.Decimal                 `json:"unit_price"`
	RefundAmount    decimal.Decimal                 `json:"refund_amount"`
	ReturnShipping  *returns.ReturnShippingSnapshot `json:"return_shipping,omitempty"`
}

// RMAResponse is the API view of a return request
type RMAResponse struct {
	ID               uuid.UUID            `json:"id"`
	StoreID          uuid.UUID            `json:"store_id"`
	RMANumber        string               `json:"rma_number"`
	Type             returns.Type         `json:"type"`
	OrderID          uuid.UUID            `json:"order_id"`
	CustomerID       *uuid.UUID           `json:"customer_id,omitempty"`
	Status           returns.Status       `json:"status"`
	RefundMethod     returns.RefundMethod `json:"refund_method"`
	RefundAmount     decimal.Decimal      `json:"refund_amount"`
	RefundStatus     returns.RefundStatus `json:"refund_status"`
	ProviderRefundID string               `json:"provider_refund_id,omitempty"`
	CreditNoteID     *uuid.UUID           `json:"credit_note_id,omitempty"`
	RejectionReason  string               `json:"rejection_reason,omitempty"`
	Lines            []RMALineResponse    `json:"lines"`
	RequestedAt      time.Time            `json:"requested_at"`
	ApprovedAt       *time.Time           `json:"approved_at,omitempty"`
	PickedUpAt       *time.Time           `json:"picked_up_at,omitempty"`
	RejectedAt       *time.Time           `json:"rejected_at,omitempty"`
	ReceivedAt       *time.Time           `json:"received_at,omitempty"`
	Version          int                  `json:"version"`
}

// ToRMAResponse converts the aggregate to its API view
func ToRMAResponse(r *returns.ReturnRequest) RMAResponse {
	resp := RMAResponse{
		ID:               r.ID,
		StoreID:          r.StoreID,
		RMANumber:        r.RMANumber,
		Type:             r.Type,
		OrderID:          r.OrderID,
		CustomerID:       r.CustomerID,
		Status:           r.Status,
		RefundMethod:     r.RefundMethod,
		RefundAmount:     r.RefundAmount,
		RefundStatus:     r.RefundStatus,
		ProviderRefundID: r.ProviderRefundID,
		CreditNoteID:     r.CreditNoteID,
		RejectionReason:  r.RejectionReason,
		RequestedAt:      r.RequestedAt,
		ApprovedAt:       r.ApprovedAt,
		PickedUpAt:       r.PickedUpAt,
		RejectedAt:       r.RejectedAt,
		ReceivedAt:       r.ReceivedAt,
		Version:          r.Version,
	}
	for _, l := range r.Lines() {
		d := l.Details()
		line := RMALineResponse{
			ID:              d.ID,
			OrderItemID:     d.OrderItemID,
			VariantID:       d.VariantID,
			SKU:             d.SKU,
			OriginID:        d.OriginID,
			Quantity:        d.Quantity,
			OrderedQuantity: d.OrderedQuantity,
			ReasonCode:      d.ReasonCode,
			Condition:       d.Condition,
			UnitPrice:       d.UnitPrice,
			RefundAmount:    d.RefundAmount,
		}
		if a, ok := l.(returns.ApprovedLine); ok {
			snap := a.Shipping
			line.ReturnShipping = &snap
		}
		resp.Lines = append(resp.Lines, line)
	}
	return resp
}

// ToRMAResponses converts a page of aggregates
func ToRMAResponses(rs []*returns.ReturnRequest) []RMAResponse {
	out := make([]RMAResponse, len(rs))
	for i, r := range rs {
		out[i] = ToRMAResponse(r)
	}
	return out
}
