package returns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditEntry is one row of the RMA audit trail
type AuditEntry struct {
	ID         uuid.UUID
	StoreID    uuid.UUID
	RMAID      uuid.UUID
	RMANumber  string
	Action     string
	Status     returns.Status
	ActorID    *uuid.UUID
	Detail     json.RawMessage
	OccurredAt time.Time
}

// AuditSink stores audit entries
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

type rmaEvent interface {
	shared.DomainEvent
	Common() returns.RMAEvent
}

// AuditHandler turns RMA lifecycle events into audit rows
type AuditHandler struct {
	sink   AuditSink
	logger *zap.Logger
}

// NewAuditHandler creates an AuditHandler
func NewAuditHandler(sink AuditSink, logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{sink: sink, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditHandler) EventTypes() []string {
	return []string{
		returns.EventTypeRMARequested,
		returns.EventTypeRMAApproved,
		returns.EventTypeRMARejected,
		returns.EventTypeRMAPickedUp,
		returns.EventTypeRMAReceived,
	}
}

// Handle records the event
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	ev, ok := event.(rmaEvent)
	if !ok {
		h.logger.Warn("unexpected event type for audit handler",
			zap.String("event_type", event.EventType()),
		)
		return nil
	}
	common := ev.Common()

	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit detail: %w", err)
	}
	return h.sink.Record(ctx, AuditEntry{
		ID:         uuid.New(),
		StoreID:    event.StoreID(),
		RMAID:      common.RMAID,
		RMANumber:  common.RMANumber,
		Action:     event.EventType(),
		Status:     common.Status,
		ActorID:    common.ActorID,
		Detail:     detail,
		OccurredAt: event.OccurredAt(),
	})
}

var _ shared.EventHandler = (*AuditHandler)(nil)
