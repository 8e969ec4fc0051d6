package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
)

func approvedEvent(storeID uuid.UUID) *returns.RMAApprovedEvent {
	rmaID := uuid.New()
	return &returns.RMAApprovedEvent{
		RMAEvent: returns.RMAEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(returns.EventTypeRMAApproved, returns.AggregateTypeReturnRequest, rmaID, storeID),
			RMAID:           rmaID,
			RMANumber:       "RMA-ACME-RET-2026-0001",
			OrderID:         uuid.New(),
			Status:          returns.StatusApproved,
		},
	}
}

type recordingHandler struct {
	mu      sync.Mutex
	types   []string
	handled []shared.DomainEvent
	err     error
	panics  bool
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

type memoryOutbox struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*shared.OutboxEntry
	findErr error
}

func newMemoryOutbox(entries ...*shared.OutboxEntry) *memoryOutbox {
	m := &memoryOutbox{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
	_ = m.Save(context.Background(), entries...)
	return m
}

func (m *memoryOutbox) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		copied := *e
		m.entries[e.ID] = &copied
	}
	return nil
}

func (m *memoryOutbox) find(match func(*shared.OutboxEntry) bool, limit int) []*shared.OutboxEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*shared.OutboxEntry
	for _, e := range m.entries {
		if match(e) && len(out) < limit {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out
}

func (m *memoryOutbox) FindPending(_ context.Context, limit int) ([]*shared.OutboxEntry, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.find(func(e *shared.OutboxEntry) bool { return e.Status == shared.OutboxStatusPending }, limit), nil
}

func (m *memoryOutbox) FindRetryable(_ context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return m.find(func(e *shared.OutboxEntry) bool {
		return e.CanRetry() && e.NextRetryAt != nil && !e.NextRetryAt.After(before)
	}, limit), nil
}

func (m *memoryOutbox) MarkProcessing(_ context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var claimed []*shared.OutboxEntry
	for _, id := range ids {
		e, ok := m.entries[id]
		if !ok || e.MarkProcessing() != nil {
			continue
		}
		copied := *e
		claimed = append(claimed, &copied)
	}
	return claimed, nil
}

func (m *memoryOutbox) Update(_ context.Context, entry *shared.OutboxEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return errors.New("not found")
	}
	copied := *entry
	m.entries[entry.ID] = &copied
	return nil
}

func (m *memoryOutbox) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.entries {
		if e.Status == shared.OutboxStatusSent && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryOutbox) get(id uuid.UUID) shared.OutboxEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.entries[id]
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (s *memoryIdempotency) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = make(map[string]bool)
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memoryIdempotency) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *memoryIdempotency) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *memoryIdempotency) Close() error { return nil }

type sinkFunc func(ctx context.Context, entry *shared.OutboxEntry) error

func (f sinkFunc) Send(ctx context.Context, entry *shared.OutboxEntry) error { return f(ctx, entry) }
