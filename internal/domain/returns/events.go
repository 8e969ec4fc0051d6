package returns

import (
	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants for ReturnRequest
const (
	EventTypeRMARequested = "RMA_REQUESTED"
	EventTypeRMAApproved  = "RMA_APPROVED"
	EventTypeRMARejected  = "RMA_REJECTED"
	EventTypeRMAPickedUp  = "RMA_PICKED_UP"
	EventTypeRMAReceived  = "RMA_RECEIVED"
)

// RMAEvent is the payload shared by every RMA lifecycle event
type RMAEvent struct {
	shared.BaseDomainEvent
	RMAID        uuid.UUID       `json:"rma_id"`
	RMANumber    string          `json:"rma_number"`
	OrderID      uuid.UUID       `json:"order_id"`
	CustomerID   *uuid.UUID      `json:"customer_id,omitempty"`
	Status       Status          `json:"status"`
	RefundMethod RefundMethod    `json:"refund_method"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	// ActorID is whoever triggered the transition
	ActorID *uuid.UUID `json:"actor_id,omitempty"`
}

// Common returns the fields every RMA event carries
func (e RMAEvent) Common() RMAEvent { return e }

func newRMAEvent(eventType string, r *ReturnRequest, actor *uuid.UUID) RMAEvent {
	return RMAEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeReturnRequest, r.ID, r.StoreID),
		RMAID:           r.ID,
		RMANumber:       r.RMANumber,
		OrderID:         r.OrderID,
		CustomerID:      r.CustomerID,
		Status:          r.Status,
		RefundMethod:    r.RefundMethod,
		RefundAmount:    r.RefundAmount,
		ActorID:         actor,
	}
}

// RMARequestedEvent is raised when a customer or agent opens a return
type RMARequestedEvent struct {
	RMAEvent
	RMAType   Type `json:"rma_type"`
	LineCount int  `json:"line_count"`
}

func NewRMARequestedEvent(r *ReturnRequest) *RMARequestedEvent {
	actor := r.RequestedBy
	return &RMARequestedEvent{
		RMAEvent:  newRMAEvent(EventTypeRMARequested, r, &actor),
		RMAType:   r.Type,
		LineCount: len(r.lines),
	}
}

// RMAApprovedEvent is raised when a return is approved and its shipping frozen
type RMAApprovedEvent struct {
	RMAEvent
}

func NewRMAApprovedEvent(r *ReturnRequest) *RMAApprovedEvent {
	return &RMAApprovedEvent{RMAEvent: newRMAEvent(EventTypeRMAApproved, r, r.ApprovedBy)}
}

// RMARejectedEvent is raised when a return is rejected
type RMARejectedEvent struct {
	RMAEvent
	Reason string `json:"reason"`
}

func NewRMARejectedEvent(r *ReturnRequest) *RMARejectedEvent {
	return &RMARejectedEvent{
		RMAEvent: newRMAEvent(EventTypeRMARejected, r, r.RejectedBy),
		Reason:   r.RejectionReason,
	}
}

// RMAPickedUpEvent is raised when the carrier collects the parcel
type RMAPickedUpEvent struct {
	RMAEvent
}

func NewRMAPickedUpEvent(r *ReturnRequest) *RMAPickedUpEvent {
	return &RMAPickedUpEvent{RMAEvent: newRMAEvent(EventTypeRMAPickedUp, r, r.PickedUpBy)}
}

// RMAReceivedEvent is raised once goods are received and the refund executed
type RMAReceivedEvent struct {
	RMAEvent
	RefundStatus     RefundStatus `json:"refund_status"`
	ProviderRefundID string       `json:"provider_refund_id,omitempty"`
	CreditNoteID     *uuid.UUID   `json:"credit_note_id,omitempty"`
}

func NewRMAReceivedEvent(r *ReturnRequest) *RMAReceivedEvent {
	return &RMAReceivedEvent{
		RMAEvent:         newRMAEvent(EventTypeRMAReceived, r, r.ReceivedBy),
		RefundStatus:     r.RefundStatus,
		ProviderRefundID: r.ProviderRefundID,
		CreditNoteID:     r.CreditNoteID,
	}
}
