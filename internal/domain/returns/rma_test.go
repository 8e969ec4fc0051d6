package returns

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLine(qty, ordered int, price string) RequestedLine {
	return RequestedLine{
		ID:              uuid.New(),
		OrderItemID:     uuid.New(),
		VariantID:       uuid.New(),
		SKU:             "SKU-1",
		OriginID:        uuid.New(),
		Quantity:        qty,
		OrderedQuantity: ordered,
		ReasonCode:      "changed_mind",
		Condition:       ConditionSealed,
		UnitPrice:       decimal.RequireFromString(price),
		RefundAmount:    decimal.RequireFromString(price),
	}
}

func newTestRequest(t *testing.T, lines ...RequestedLine) *ReturnRequest {
	t.Helper()
	if len(lines) == 0 {
		lines = []RequestedLine{newTestLine(1, 1, "100")}
	}
	r, err := NewReturnRequest(NewReturnRequestParams{
		StoreID:      uuid.New(),
		RMANumber:    "RMA-ACME-RET-2026-0001",
		Type:         TypeReturn,
		OrderID:      uuid.New(),
		RefundMethod: RefundMethodOriginal,
		RequestedBy:  uuid.New(),
		Lines:        lines,
	})
	require.NoError(t, err)
	return r
}

func snapshotsFor(r *ReturnRequest, snap ReturnShippingSnapshot) map[uuid.UUID]ReturnShippingSnapshot {
	out := make(map[uuid.UUID]ReturnShippingSnapshot)
	for _, l := range r.LineDetails() {
		out[l.ID] = snap
	}
	return out
}

func TestNewReturnRequest(t *testing.T) {
	t.Run("opens in requested state with summed refund", func(t *testing.T) {
		r := newTestRequest(t, newTestLine(1, 2, "25"), newTestLine(1, 1, "40"))

		assert.Equal(t, StatusRequested, r.Status)
		assert.Equal(t, RefundStatusPending, r.RefundStatus)
		assert.True(t, decimal.RequireFromString("65").Equal(r.RefundAmount))
		assert.Len(t, r.Lines(), 2)
		assert.Equal(t, 1, r.GetVersion())

		events := r.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeRMARequested, events[0].EventType())
		assert.Equal(t, r.StoreID, events[0].StoreID())
	})

	t.Run("rejects quantity above ordered", func(t *testing.T) {
		_, err := NewReturnRequest(NewReturnRequestParams{
			StoreID: uuid.New(), RMANumber: "RMA-X", Type: TypeReturn, OrderID: uuid.New(),
			RefundMethod: RefundMethodOriginal, Lines: []RequestedLine{newTestLine(3, 2, "10")},
		})
		assert.True(t, errors.Is(err, ErrInvalidLine))
	})

	t.Run("missing origin is fulfillment data missing", func(t *testing.T) {
		line := newTestLine(1, 1, "10")
		line.OriginID = uuid.Nil
		_, err := NewReturnRequest(NewReturnRequestParams{
			StoreID: uuid.New(), RMANumber: "RMA-X", Type: TypeReturn, OrderID: uuid.New(),
			RefundMethod: RefundMethodOriginal, Lines: []RequestedLine{line},
		})
		assert.True(t, errors.Is(err, ErrFulfillmentDataMissing))
	})

	t.Run("no lines is ineligible", func(t *testing.T) {
		_, err := NewReturnRequest(NewReturnRequestParams{
			StoreID: uuid.New(), RMANumber: "RMA-X", Type: TypeReturn, OrderID: uuid.New(),
			RefundMethod: RefundMethodOriginal,
		})
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "INELIGIBLE_RETURN", de.Code)
		assert.Equal(t, []string{ReasonNoLines}, de.Reasons)
	})

	t.Run("unknown refund method", func(t *testing.T) {
		_, err := NewReturnRequest(NewReturnRequestParams{
			StoreID: uuid.New(), RMANumber: "RMA-X", Type: TypeReturn, OrderID: uuid.New(),
			RefundMethod: "cheque", Lines: []RequestedLine{newTestLine(1, 1, "10")},
		})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestReturnRequest_Approve(t *testing.T) {
	t.Run("freezes a snapshot on every line", func(t *testing.T) {
		r := newTestRequest(t, newTestLine(1, 1, "40"), newTestLine(1, 1, "10"))
		r.ClearDomainEvents()
		snap := ReturnShippingSnapshot{Payer: PayerCustomer, Amount: decimal.NewFromInt(5), RuleScope: RuleScopeStore}

		require.NoError(t, r.Approve(uuid.New(), snapshotsFor(r, snap)))

		assert.Equal(t, StatusApproved, r.Status)
		assert.NotNil(t, r.ApprovedAt)
		approved, err := r.ApprovedLines()
		require.NoError(t, err)
		require.Len(t, approved, 2)
		for _, l := range approved {
			assert.Equal(t, PayerCustomer, l.Shipping.Payer)
		}
		require.Len(t, r.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeRMAApproved, r.GetDomainEvents()[0].EventType())
	})

	t.Run("missing snapshot leaves rma untouched", func(t *testing.T) {
		r := newTestRequest(t, newTestLine(1, 1, "40"), newTestLine(1, 1, "10"))
		partial := map[uuid.UUID]ReturnShippingSnapshot{
			r.LineDetails()[0].ID: DefaultShippingSnapshot(time.Now()),
		}

		err := r.Approve(uuid.New(), partial)

		assert.Error(t, err)
		assert.Equal(t, StatusRequested, r.Status)
		_, err = r.ApprovedLines()
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("second approve is an invalid transition", func(t *testing.T) {
		r := newTestRequest(t)
		snaps := snapshotsFor(r, DefaultShippingSnapshot(time.Now()))
		require.NoError(t, r.Approve(uuid.New(), snaps))
		approvedAt := r.ApprovedAt

		err := r.Approve(uuid.New(), snaps)

		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Equal(t, approvedAt, r.ApprovedAt)
	})
}

func TestReturnRequest_Reject(t *testing.T) {
	t.Run("records reason and is terminal", func(t *testing.T) {
		r := newTestRequest(t)
		require.NoError(t, r.Reject(uuid.New(), "outside policy"))

		assert.Equal(t, StatusRejected, r.Status)
		assert.Equal(t, "outside policy", r.RejectionReason)
		assert.True(t, r.Status.IsTerminal())

		err := r.Approve(uuid.New(), snapshotsFor(r, DefaultShippingSnapshot(time.Now())))
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("requires reason", func(t *testing.T) {
		r := newTestRequest(t)
		assert.Error(t, r.Reject(uuid.New(), ""))
		assert.Equal(t, StatusRequested, r.Status)
	})

	t.Run("cannot reject after approval", func(t *testing.T) {
		r := newTestRequest(t)
		require.NoError(t, r.Approve(uuid.New(), snapshotsFor(r, DefaultShippingSnapshot(time.Now()))))
		assert.True(t, errors.Is(r.Reject(uuid.New(), "late"), shared.ErrInvalidState))
		assert.Equal(t, StatusApproved, r.Status)
	})
}

func TestReturnRequest_CompleteReceipt(t *testing.T) {
	approvedRequest := func(t *testing.T) *ReturnRequest {
		r := newTestRequest(t, newTestLine(1, 1, "40"))
		require.NoError(t, r.Approve(uuid.New(), snapshotsFor(r, DefaultShippingSnapshot(time.Now()))))
		r.ClearDomainEvents()
		return r
	}

	t.Run("from approved", func(t *testing.T) {
		r := approvedRequest(t)
		lines, err := r.ApprovedLines()
		require.NoError(t, err)
		cn := uuid.New()

		err = r.CompleteReceipt(Receipt{
			ReceiverID:       uuid.New(),
			Lines:            lines,
			RefundAmount:     decimal.NewFromInt(40),
			RefundStatus:     RefundStatusCompleted,
			ProviderRefundID: "rf_1",
			CreditNoteID:     &cn,
		})

		require.NoError(t, err)
		assert.Equal(t, StatusReceived, r.Status)
		assert.Equal(t, RefundStatusCompleted, r.RefundStatus)
		assert.Equal(t, "rf_1", r.ProviderRefundID)
		assert.Equal(t, &cn, r.CreditNoteID)
		require.Len(t, r.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeRMAReceived, r.GetDomainEvents()[0].EventType())
	})

	t.Run("from picked up", func(t *testing.T) {
		r := approvedRequest(t)
		require.NoError(t, r.MarkPickedUp(uuid.New()))
		lines, _ := r.ApprovedLines()

		require.NoError(t, r.CompleteReceipt(Receipt{ReceiverID: uuid.New(), Lines: lines, RefundStatus: RefundStatusPending}))
		assert.Equal(t, StatusReceived, r.Status)
	})

	t.Run("not from requested", func(t *testing.T) {
		r := newTestRequest(t)
		err := r.CompleteReceipt(Receipt{ReceiverID: uuid.New()})
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Equal(t, StatusRequested, r.Status)
	})

	t.Run("receipt must cover every line", func(t *testing.T) {
		r := approvedRequest(t)
		err := r.CompleteReceipt(Receipt{ReceiverID: uuid.New()})
		assert.Error(t, err)
		assert.Equal(t, StatusApproved, r.Status)
	})
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusRequested, StatusApproved, true},
		{StatusRequested, StatusRejected, true},
		{StatusRequested, StatusReceived, false},
		{StatusApproved, StatusPickedUp, true},
		{StatusApproved, StatusReceived, true},
		{StatusApproved, StatusRejected, false},
		{StatusPickedUp, StatusReceived, true},
		{StatusReceived, StatusApproved, false},
		{StatusRejected, StatusApproved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestFormatRMANumber(t *testing.T) {
	assert.Equal(t, "RMA-ACME-RET-2026-0001", FormatRMANumber("acme", TypeReturn, 2026, 1))
	assert.Equal(t, "RMA-ACME-LOG-2026-0042", FormatRMANumber("ACME", TypeLogistics, 2026, 42))
	assert.Equal(t, "RMA-ACME-CRM-2026-12345", FormatRMANumber("ACME", TypeCRM, 2026, 12345))
}

func TestReconstruct_DropsEvents(t *testing.T) {
	r := newTestRequest(t)
	restored := Reconstruct(*r, r.Lines())

	assert.Empty(t, restored.GetDomainEvents())
	assert.Len(t, restored.Lines(), 1)
}
