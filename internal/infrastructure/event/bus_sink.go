package event

import (
	"context"

	"github.com/erp/returns/internal/domain/shared"
)

// BusSink decodes outbox entries and publishes them on an in-process bus.
// It is used when no broker is configured.
type BusSink struct {
	bus        shared.EventPublisher
	serializer *EventSerializer
}

// NewBusSink creates a BusSink
func NewBusSink(bus shared.EventPublisher, serializer *EventSerializer) *BusSink {
	return &BusSink{bus: bus, serializer: serializer}
}

// Send decodes the payload and publishes the event
func (s *BusSink) Send(ctx context.Context, entry *shared.OutboxEntry) error {
	event, err := s.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, event)
}

var _ Sink = (*BusSink)(nil)
