package returns

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/domain/inventory"
	"github.com/erp/returns/internal/domain/ledger"
	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/domain/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRefundGateway is a mock implementation of finance.RefundGateway
type MockRefundGateway struct {
	mock.Mock
}

func (m *MockRefundGateway) Refund(ctx context.Context, req *finance.RefundRequest) (*finance.RefundResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.RefundResponse), args.Error(1)
}

// MockWalletCreditor is a mock implementation of finance.WalletCreditor
type MockWalletCreditor struct {
	mock.Mock
}

func (m *MockWalletCreditor) Credit(ctx context.Context, credit finance.WalletCredit) error {
	args := m.Called(ctx, credit)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockAuditSink is a mock implementation of AuditSink
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Record(ctx context.Context, entry AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockMetrics is a mock implementation of Metrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) ObserveTransition(action string, err error, elapsed time.Duration) {
	m.Called(action, err, elapsed)
}

func (m *MockMetrics) ObserveDispatch(paymentMethod, outcome string, elapsed time.Duration) {
	m.Called(paymentMethod, outcome, elapsed)
}

type jsonEncoder struct{ err error }

func (e jsonEncoder) Serialize(event shared.DomainEvent) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []byte(fmt.Sprintf(`{"type":%q}`, event.EventType())), nil
}

// In-memory repositories. They share aggregate pointers with the caller, so
// tests observe exactly what the service wrote.

type memReturns struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*returns.ReturnRequest
	saves    int
	conflict bool
}

func newMemReturns() *memReturns {
	return &memReturns{items: make(map[uuid.UUID]*returns.ReturnRequest)}
}

func (r *memReturns) FindByIDForStore(_ context.Context, storeID, id uuid.UUID) (*returns.ReturnRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rma, ok := r.items[id]
	if !ok || rma.StoreID != storeID {
		return nil, shared.ErrNotFound
	}
	return rma, nil
}

func (r *memReturns) FindAllForStore(_ context.Context, storeID uuid.UUID, f returns.ListFilter) ([]*returns.ReturnRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*returns.ReturnRequest
	for _, rma := range r.items {
		if rma.StoreID != storeID {
			continue
		}
		if f.Status != "" && rma.Status != f.Status {
			continue
		}
		if f.OrderID != nil && rma.OrderID != *f.OrderID {
			continue
		}
		out = append(out, rma)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RMANumber < out[j].RMANumber })
	return out, int64(len(out)), nil
}

func (r *memReturns) FindOpenByOrder(_ context.Context, storeID, orderID uuid.UUID) ([]*returns.ReturnRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*returns.ReturnRequest
	for _, rma := range r.items {
		if rma.StoreID == storeID && rma.OrderID == orderID && rma.Status.IsOpen() {
			out = append(out, rma)
		}
	}
	return out, nil
}

func (r *memReturns) Create(_ context.Context, rma *returns.ReturnRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rma.ID] = rma
	return nil
}

func (r *memReturns) SaveWithLock(_ context.Context, rma *returns.ReturnRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflict {
		return shared.ErrConcurrencyConflict
	}
	rma.IncrementVersion()
	r.items[rma.ID] = rma
	r.saves++
	return nil
}

type memOrders struct {
	orders map[uuid.UUID]*order.Order
	saves  int
	locked int
}

func (r *memOrders) FindByIDForStore(_ context.Context, storeID, id uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok || o.StoreID != storeID {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (r *memOrders) FindByIDForStoreForUpdate(ctx context.Context, storeID, id uuid.UUID) (*order.Order, error) {
	r.locked++
	return r.FindByIDForStore(ctx, storeID, id)
}

func (r *memOrders) SaveReturnProgress(_ context.Context, o *order.Order) error {
	o.Version++
	r.orders[o.ID] = o
	r.saves++
	return nil
}

type memStores struct {
	stores map[uuid.UUID]*store.Store
}

func (r *memStores) FindByID(_ context.Context, id uuid.UUID) (*store.Store, error) {
	s, ok := r.stores[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

type stockKey struct{ origin, variant uuid.UUID }

type memInventory struct {
	records      map[stockKey]*inventory.Record
	reservations []*inventory.Reservation
}

func newMemInventory() *memInventory {
	return &memInventory{records: make(map[stockKey]*inventory.Record)}
}

func (r *memInventory) FindRecord(_ context.Context, originID, variantID uuid.UUID) (*inventory.Record, error) {
	rec, ok := r.records[stockKey{originID, variantID}]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return rec, nil
}

func (r *memInventory) SaveRecord(_ context.Context, rec *inventory.Record) error {
	rec.Version++
	r.records[stockKey{rec.OriginID, rec.VariantID}] = rec
	return nil
}

func (r *memInventory) FindReserved(_ context.Context, orderID, variantID, originID uuid.UUID) ([]*inventory.Reservation, error) {
	var out []*inventory.Reservation
	for _, res := range r.reservations {
		if res.OrderID == orderID && res.VariantID == variantID && res.OriginID == originID &&
			res.Status == inventory.ReservationReserved {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *memInventory) SaveReservation(context.Context, *inventory.Reservation) error { return nil }

func (r *memInventory) stock(originID, variantID uuid.UUID) int {
	if rec, ok := r.records[stockKey{originID, variantID}]; ok {
		return rec.AvailableStock
	}
	return 0
}

type memLedger struct {
	splits  map[uuid.UUID]*ledger.PaymentSplit
	entries []*ledger.Entry
}

func (r *memLedger) FindSplitByOrder(_ context.Context, orderID uuid.UUID) (*ledger.PaymentSplit, error) {
	s, ok := r.splits[orderID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (r *memLedger) Append(_ context.Context, entries ...*ledger.Entry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memLedger) FindByRMA(_ context.Context, rmaID uuid.UUID) ([]*ledger.Entry, error) {
	var out []*ledger.Entry
	for _, e := range r.entries {
		if e.RMAID == rmaID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memLedger) byType(t ledger.EntryType) []*ledger.Entry {
	var out []*ledger.Entry
	for _, e := range r.entries {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memInvoices struct {
	invoices map[uuid.UUID]*finance.Invoice
}

func (r *memInvoices) FindByOrder(_ context.Context, orderID uuid.UUID) (*finance.Invoice, error) {
	inv, ok := r.invoices[orderID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

type memCreditNotes struct {
	notes     []*finance.CreditNote
	createErr error
}

func (r *memCreditNotes) Create(_ context.Context, cn *finance.CreditNote) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.notes = append(r.notes, cn)
	return nil
}

func (r *memCreditNotes) FindByRMA(_ context.Context, rmaID uuid.UUID) (*finance.CreditNote, error) {
	for _, cn := range r.notes {
		if cn.RMAID == rmaID {
			return cn, nil
		}
	}
	return nil, shared.ErrNotFound
}

type memRules struct {
	rules []returns.ShippingRule
}

func (r *memRules) FindActiveForStore(_ context.Context, storeID uuid.UUID) ([]returns.ShippingRule, error) {
	var out []returns.ShippingRule
	for _, rule := range r.rules {
		if rule.StoreID == storeID && rule.Active {
			out = append(out, rule)
		}
	}
	return out, nil
}

type memSequences struct {
	mu     sync.Mutex
	values map[string]int64
}

func (r *memSequences) Next(_ context.Context, scope string, storeID uuid.UUID, year int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s/%s/%d", scope, storeID, year)
	r.values[key]++
	return r.values[key], nil
}

type memOutbox struct {
	entries []*shared.OutboxEntry
}

func (r *memOutbox) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}
func (r *memOutbox) FindPending(context.Context, int) ([]*shared.OutboxEntry, error) { return nil, nil }
func (r *memOutbox) FindRetryable(context.Context, time.Time, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}
func (r *memOutbox) MarkProcessing(context.Context, []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, nil
}
func (r *memOutbox) Update(context.Context, *shared.OutboxEntry) error            { return nil }
func (r *memOutbox) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }
