package returns

import (
	"context"
	"testing"
	"time"

	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/domain/inventory"
	"github.com/erp/returns/internal/domain/ledger"
	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared/valueobject"
	"github.com/erp/returns/internal/domain/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// item builds an order item; price is the unit price snapshot on the order
func item(sku, price string, qty int) order.Item {
	return order.Item{
		ID:        uuid.New(),
		VariantID: uuid.New(),
		SKU:       sku,
		Quantity:  qty,
		UnitPrice: dec(price),
	}
}

type fixture struct {
	store    *store.Store
	order    *order.Order
	origin   uuid.UUID
	actor    uuid.UUID
	rmas     *memReturns
	orders   *memOrders
	stock    *memInventory
	ledger   *memLedger
	invoices *memInvoices
	notes    *memCreditNotes
	rules    *memRules
	seq      *memSequences
	outbox   *memOutbox
	gateway  *MockRefundGateway
	wallet   *MockWalletCreditor
	svc      *RMAService
}

func newFixture(method order.PaymentMethod, items ...order.Item) *fixture {
	f := &fixture{
		store:  &store.Store{ID: uuid.New(), Code: "acme", Name: "Acme", ReturnWindowDays: 30, Currency: "USD"},
		origin: uuid.New(),
		actor:  uuid.New(),
		rmas:   newMemReturns(),
		stock:  newMemInventory(),
		rules:  &memRules{},
		seq:    &memSequences{values: make(map[string]int64)},
		outbox: &memOutbox{},
		notes:  &memCreditNotes{},
	}

	subtotal := decimal.Zero
	for i := range items {
		if items[i].FulfillmentOriginID == nil {
			origin := f.origin
			items[i].FulfillmentOriginID = &origin
		}
		subtotal = subtotal.Add(items[i].UnitPrice)
	}
	tax := valueobject.RoundMoney(subtotal.Mul(dec("0.1")))
	delivered := time.Now().Add(-48 * time.Hour)
	f.order = &order.Order{
		ID:               uuid.New(),
		StoreID:          f.store.ID,
		Number:           "SO-1001",
		CustomerID:       uuid.New(),
		PaymentMethod:    method,
		PaymentReference: "pay_123",
		Status:           order.StatusDelivered,
		DeliveredAt:      &delivered,
		Subtotal:         subtotal,
		Tax:              tax,
		Total:            subtotal.Add(tax),
		Currency:         "USD",
		Items:            items,
		Shipping:         order.ShippingSnapshot{Amount: dec("10"), Zone: "US"},
		ShippingAddress:  valueobject.Address{Line1: "1 Main St", City: "Austin", Region: "TX", Country: "US"},
		Version:          1,
	}
	f.orders = &memOrders{orders: map[uuid.UUID]*order.Order{f.order.ID: f.order}}

	supplierID, resellerID := uuid.New(), uuid.New()
	f.ledger = &memLedger{splits: map[uuid.UUID]*ledger.PaymentSplit{
		f.order.ID: {
			ID:             uuid.New(),
			StoreID:        f.store.ID,
			OrderID:        f.order.ID,
			SupplierID:     &supplierID,
			ResellerID:     &resellerID,
			SupplierAmount: valueobject.RoundMoney(subtotal.Mul(dec("0.7"))),
			ResellerAmount: valueobject.RoundMoney(subtotal.Mul(dec("0.2"))),
			PlatformAmount: subtotal.Sub(valueobject.RoundMoney(subtotal.Mul(dec("0.7")))).Sub(valueobject.RoundMoney(subtotal.Mul(dec("0.2")))),
			Currency:       "USD",
		},
	}}
	f.invoices = &memInvoices{invoices: map[uuid.UUID]*finance.Invoice{
		f.order.ID: {
			ID:       uuid.New(),
			StoreID:  f.store.ID,
			OrderID:  f.order.ID,
			Number:   "INV-1001",
			Subtotal: subtotal,
			Tax:      tax,
			Total:    subtotal.Add(tax),
			Currency: "USD",
		},
	}}

	f.gateway = new(MockRefundGateway)
	f.wallet = new(MockWalletCreditor)

	scope := NewNoOpTransactionScope(Repositories{
		Returns:       f.rmas,
		Orders:        f.orders,
		Stores:        &memStores{stores: map[uuid.UUID]*store.Store{f.store.ID: f.store}},
		Inventory:     f.stock,
		Ledger:        f.ledger,
		Invoices:      f.invoices,
		CreditNotes:   f.notes,
		ShippingRules: f.rules,
		Sequences:     f.seq,
		Outbox:        f.outbox,
	})
	dispatcher := NewRefundDispatcher(f.gateway, f.wallet, nil)
	f.svc = NewRMAService(scope, dispatcher, Config{DefaultWindowDays: 14}, nil)
	return f
}

func (f *fixture) line(it order.Item, qty int) LineRequest {
	return LineRequest{
		VariantID:  it.VariantID,
		Quantity:   qty,
		ReasonCode: "CHANGED_MIND",
		Condition:  returns.ConditionSealed,
	}
}

func (f *fixture) request(t *testing.T, method returns.RefundMethod, lines ...LineRequest) *RMAResponse {
	t.Helper()
	resp, err := f.svc.Request(context.Background(), RequestInput{
		StoreID:      f.store.ID,
		OrderID:      f.order.ID,
		ActorID:      f.actor,
		RefundMethod: method,
		Lines:        lines,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) approve(t *testing.T, id uuid.UUID) *RMAResponse {
	t.Helper()
	resp, err := f.svc.Approve(context.Background(), f.store.ID, id, f.actor)
	require.NoError(t, err)
	return resp
}

func (f *fixture) receive(id uuid.UUID) (*RMAResponse, error) {
	return f.svc.Receive(context.Background(), f.store.ID, id, f.actor)
}

func (f *fixture) expectRefund(amount string) {
	f.gateway.On("Refund", mockAny, matchAmount(amount)).
		Return(&finance.RefundResponse{ProviderRefundID: "rf_1", Status: finance.GatewayRefundSucceeded}, nil).
		Once()
}

func (f *fixture) reserve(it order.Item, qty int) *inventory.Reservation {
	res := &inventory.Reservation{
		ID:        uuid.New(),
		OrderID:   f.order.ID,
		VariantID: it.VariantID,
		OriginID:  f.origin,
		Quantity:  qty,
		Status:    inventory.ReservationReserved,
	}
	f.stock.reservations = append(f.stock.reservations, res)
	return res
}

func sumLines(resp *RMAResponse) decimal.Decimal {
	total := decimal.Zero
	for _, l := range resp.Lines {
		total = total.Add(l.RefundAmount)
	}
	return total
}
