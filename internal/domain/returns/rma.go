package returns

import (
	"fmt"
	"time"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeReturnRequest is the aggregate type recorded on events and outbox rows
const AggregateTypeReturnRequest = "ReturnRequest"

// ReturnRequest is the RMA aggregate root. It owns its lines; the order,
// ledger entries and credit note are referenced by ID only.
type ReturnRequest struct {
	shared.StoreAggregateRoot
	RMANumber        string
	Type             Type
	OrderID          uuid.UUID
	CustomerID       *uuid.UUID
	Status           Status
	RefundMethod     RefundMethod
	RefundAmount     decimal.Decimal
	RefundStatus     RefundStatus
	ProviderRefundID string
	CreditNoteID     *uuid.UUID
	RejectionReason  string
	RequestedAt      time.Time
	RequestedBy      uuid.UUID
	ApprovedAt       *time.Time
	ApprovedBy       *uuid.UUID
	PickedUpAt       *time.Time
	PickedUpBy       *uuid.UUID
	RejectedAt       *time.Time
	RejectedBy       *uuid.UUID
	ReceivedAt       *time.Time
	ReceivedBy       *uuid.UUID

	lines []ReturnLine
}

// NewReturnRequestParams holds what is needed to open an RMA
type NewReturnRequestParams struct {
	StoreID      uuid.UUID
	RMANumber    string
	Type         Type
	OrderID      uuid.UUID
	CustomerID   *uuid.UUID
	RefundMethod RefundMethod
	RequestedBy  uuid.UUID
	Lines        []RequestedLine
}

// NewReturnRequest opens an RMA in the requested state. RefundAmount is the
// sum of the line refunds already computed on the lines.
func NewReturnRequest(p NewReturnRequestParams) (*ReturnRequest, error) {
	if p.StoreID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("store is required")
	}
	if p.OrderID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("order is required")
	}
	if p.RMANumber == "" {
		return nil, shared.ErrInvalidInput.WithMessage("RMA number is required")
	}
	if !p.Type.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown return type %q", p.Type))
	}
	if !p.RefundMethod.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown refund method %q", p.RefundMethod))
	}
	if len(p.Lines) == 0 {
		return nil, ErrIneligibleReturn.WithReasons(ReasonNoLines)
	}

	lines := make([]ReturnLine, 0, len(p.Lines))
	total := decimal.Zero
	for _, l := range p.Lines {
		if err := validateRequestedLine(l); err != nil {
			return nil, err
		}
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		total = total.Add(l.RefundAmount)
		lines = append(lines, l)
	}

	r := &ReturnRequest{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(p.StoreID),
		RMANumber:          p.RMANumber,
		Type:               p.Type,
		OrderID:            p.OrderID,
		CustomerID:         p.CustomerID,
		Status:             StatusRequested,
		RefundMethod:       p.RefundMethod,
		RefundAmount:       total,
		RefundStatus:       RefundStatusPending,
		RequestedBy:        p.RequestedBy,
		lines:              lines,
	}
	r.RequestedAt = r.CreatedAt
	r.AddDomainEvent(NewRMARequestedEvent(r))
	return r, nil
}

// Reconstruct rebuilds an aggregate loaded from storage. It performs no
// validation and raises no events.
func Reconstruct(r ReturnRequest, lines []ReturnLine) *ReturnRequest {
	r.lines = append([]ReturnLine(nil), lines...)
	r.ClearDomainEvents()
	return &r
}

// Lines returns a copy of the lines
func (r *ReturnRequest) Lines() []ReturnLine {
	return append([]ReturnLine(nil), r.lines...)
}

// LineDetails returns the common data of every line
func (r *ReturnRequest) LineDetails() []RequestedLine {
	out := make([]RequestedLine, len(r.lines))
	for i, l := range r.lines {
		out[i] = l.Details()
	}
	return out
}

// ApprovedLines returns the lines as ApprovedLine values. It fails if any
// line has not been through approval.
func (r *ReturnRequest) ApprovedLines() ([]ApprovedLine, error) {
	out := make([]ApprovedLine, 0, len(r.lines))
	for _, l := range r.lines {
		switch v := l.(type) {
		case ApprovedLine:
			out = append(out, v)
		case RequestedLine:
			return nil, shared.ErrInvalidState.WithMessage(
				fmt.Sprintf("line %s of %s has no return-shipping snapshot", v.ID, r.RMANumber))
		}
	}
	return out, nil
}

// QuantityByItem sums returned quantity per order item
func (r *ReturnRequest) QuantityByItem() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(r.lines))
	for _, l := range r.lines {
		d := l.Details()
		out[d.OrderItemID] += d.Quantity
	}
	return out
}

func (r *ReturnRequest) guard(target Status, action string) error {
	if !r.Status.CanTransitionTo(target) {
		return shared.ErrInvalidState.WithMessage(
			fmt.Sprintf("Cannot %s return %s in %s status", action, r.RMANumber, r.Status))
	}
	return nil
}

// Approve moves the RMA from requested to approved, freezing one shipping
// snapshot per line. snapshots must hold an entry for every line ID.
func (r *ReturnRequest) Approve(approverID uuid.UUID, snapshots map[uuid.UUID]ReturnShippingSnapshot) error {
	if err := r.guard(StatusApproved, "approve"); err != nil {
		return err
	}
	if approverID == uuid.Nil {
		return shared.ErrInvalidInput.WithMessage("approver is required")
	}

	approved := make([]ReturnLine, 0, len(r.lines))
	for _, l := range r.lines {
		req, ok := l.(RequestedLine)
		if !ok {
			return shared.ErrInvalidState.WithMessage("line already approved")
		}
		snap, ok := snapshots[req.ID]
		if !ok {
			return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("missing shipping snapshot for line %s", req.ID))
		}
		if !snap.Payer.IsValid() {
			return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("invalid shipping payer %q", snap.Payer))
		}
		approved = append(approved, req.Approve(snap))
	}

	now := time.Now()
	r.lines = approved
	r.Status = StatusApproved
	r.ApprovedAt = &now
	r.ApprovedBy = &approverID
	r.Touch(now)
	r.AddDomainEvent(NewRMAApprovedEvent(r))
	return nil
}

// Reject moves the RMA from requested to rejected. Terminal.
func (r *ReturnRequest) Reject(rejecterID uuid.UUID, reason string) error {
	if err := r.guard(StatusRejected, "reject"); err != nil {
		return err
	}
	if rejecterID == uuid.Nil {
		return shared.ErrInvalidInput.WithMessage("rejecter is required")
	}
	if reason == "" {
		return shared.ErrInvalidInput.WithMessage("Rejection reason is required")
	}

	now := time.Now()
	r.Status = StatusRejected
	r.RejectedAt = &now
	r.RejectedBy = &rejecterID
	r.RejectionReason = reason
	r.Touch(now)
	r.AddDomainEvent(NewRMARejectedEvent(r))
	return nil
}

// MarkPickedUp records that the carrier collected the parcel
func (r *ReturnRequest) MarkPickedUp(actorID uuid.UUID) error {
	if err := r.guard(StatusPickedUp, "mark picked up"); err != nil {
		return err
	}
	now := time.Now()
	r.Status = StatusPickedUp
	r.PickedUpAt = &now
	r.PickedUpBy = &actorID
	r.Touch(now)
	r.AddDomainEvent(NewRMAPickedUpEvent(r))
	return nil
}

// CanApprove reports whether Approve is legal in the current state
func (r *ReturnRequest) CanApprove() error {
	return r.guard(StatusApproved, "approve")
}

// CanReceive reports whether Receive is legal in the current state
func (r *ReturnRequest) CanReceive() error {
	return r.guard(StatusReceived, "receive")
}

// Receipt is the outcome of processing a received return
type Receipt struct {
	ReceiverID       uuid.UUID
	Lines            []ApprovedLine
	RefundAmount     decimal.Decimal
	RefundStatus     RefundStatus
	ProviderRefundID string
	CreditNoteID     *uuid.UUID
}

// CompleteReceipt moves the RMA to received and records the final refund.
// The lines passed in must be the RMA's own approved lines with their final
// refunds set.
func (r *ReturnRequest) CompleteReceipt(rc Receipt) error {
	if err := r.CanReceive(); err != nil {
		return err
	}
	if len(rc.Lines) != len(r.lines) {
		return shared.ErrInvalidInput.WithMessage("receipt does not cover every line")
	}
	lines := make([]ReturnLine, len(rc.Lines))
	for i, l := range rc.Lines {
		if l.ID != r.lines[i].Details().ID {
			return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unexpected line %s in receipt", l.ID))
		}
		lines[i] = l
	}

	now := time.Now()
	r.lines = lines
	r.RefundAmount = rc.RefundAmount
	r.RefundStatus = rc.RefundStatus
	r.ProviderRefundID = rc.ProviderRefundID
	r.CreditNoteID = rc.CreditNoteID
	r.Status = StatusReceived
	r.ReceivedAt = &now
	r.ReceivedBy = &rc.ReceiverID
	r.Touch(now)
	r.AddDomainEvent(NewRMAReceivedEvent(r))
	return nil
}
