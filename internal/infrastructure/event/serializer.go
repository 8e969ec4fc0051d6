package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
)

// EventSerializer encodes domain events as JSON and decodes them back
// into their registered Go types
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a serializer with no registered types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{registry: make(map[string]reflect.Type)}
}

// NewRMAEventSerializer creates a serializer that knows every RMA lifecycle event
func NewRMAEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(returns.EventTypeRMARequested, &returns.RMARequestedEvent{})
	s.Register(returns.EventTypeRMAApproved, &returns.RMAApprovedEvent{})
	s.Register(returns.EventTypeRMARejected, &returns.RMARejectedEvent{})
	s.Register(returns.EventTypeRMAPickedUp, &returns.RMAPickedUpEvent{})
	s.Register(returns.EventTypeRMAReceived, &returns.RMAReceivedEvent{})
	return s
}

// Register associates an event type with the Go type it decodes into
func (s *EventSerializer) Register(eventType string, instance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(instance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize encodes an event. Unregistered types are refused so nothing
// lands in the outbox that the relay cannot decode.
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	if !s.IsRegistered(event.EventType()) {
		return nil, fmt.Errorf("unknown event type: %s", event.EventType())
	}
	return json.Marshal(event)
}

// Deserialize decodes a payload into the type registered for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", eventType, err)
	}
	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("%s does not implement DomainEvent", t)
	}
	return event, nil
}

// IsRegistered reports whether eventType can be decoded
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}
