package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReturnLineRequest is one line of a return request body
type ReturnLineRequest struct {
	VariantID  string  `json:"variant_id" binding:"required,uuid"`
	OriginID   *string `json:"origin_id" binding:"omitempty,uuid"`
	Quantity   int     `json:"quantity" binding:"required,gt=0"`
	ReasonCode string  `json:"reason_code" binding:"max=64"`
	Condition  string  `json:"condition" binding:"required,oneof=sealed opened damaged"`
}

// CreateReturnRequest opens a return against an order
type CreateReturnRequest struct {
	OrderID      string              `json:"order_id" binding:"required,uuid"`
	CustomerID   *string             `json:"customer_id" binding:"omitempty,uuid"`
	Type         string              `json:"type" binding:"required,oneof=LOG RET CRM"`
	RefundMethod string              `json:"refund_method" binding:"required,oneof=original wallet cod_adjustment"`
	Lines        []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// RejectReturnRequest carries the rejection reason
type RejectReturnRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListReturnsRequest holds list query parameters
type ListReturnsRequest struct {
	Status     string `form:"status" binding:"omitempty,oneof=requested approved picked_up received rejected"`
	OrderID    string `form:"order_id" binding:"omitempty,uuid"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=requested_at created_at rma_number status refund_amount"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// IDRequest binds the :id path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// AuditEntryResponse is one audit row
type AuditEntryResponse struct {
	Action     string          `json:"action"`
	Status     string          `json:"status"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
