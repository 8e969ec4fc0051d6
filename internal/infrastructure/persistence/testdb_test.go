package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/domain/ledger"
	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/store"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewSQLiteDatabase(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

// seed holds one store with a delivered, invoiced and split order
type seed struct {
	store  *store.Store
	order  *order.Order
	origin uuid.UUID
}

func seedOrder(t *testing.T, db *gorm.DB, method order.PaymentMethod, items ...order.Item) seed {
	t.Helper()
	ctx := context.Background()
	s := seed{
		store:  &store.Store{ID: uuid.New(), Code: "acme", Name: "Acme", ReturnWindowDays: 30, Currency: "USD"},
		origin: uuid.New(),
	}
	require.NoError(t, db.WithContext(ctx).Create(models.StoreModelFromDomain(s.store)).Error)

	subtotal := decimal.Zero
	for i := range items {
		origin := s.origin
		items[i].FulfillmentOriginID = &origin
		subtotal = subtotal.Add(items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity))))
	}
	tax := subtotal.Mul(dec("0.1")).Round(2)
	delivered := time.Now().Add(-48 * time.Hour)
	s.order = &order.Order{
		ID:               uuid.New(),
		StoreID:          s.store.ID,
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
		Shipping:         order.ShippingSnapshot{Amount: dec("10")},
		Version:          1,
		UpdatedAt:        time.Now(),
	}
	require.NoError(t, db.WithContext(ctx).Create(models.OrderModelFromDomain(s.order)).Error)

	require.NoError(t, db.Create(models.InvoiceModelFromDomain(&finance.Invoice{
		ID:       uuid.New(),
		StoreID:  s.store.ID,
		OrderID:  s.order.ID,
		Number:   "INV-ACME-0001",
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
		Currency: "USD",
		IssuedAt: delivered,
	})).Error)

	supplier := uuid.New()
	require.NoError(t, db.Create(models.PaymentSplitModelFromDomain(&ledger.PaymentSplit{
		ID:             uuid.New(),
		StoreID:        s.store.ID,
		OrderID:        s.order.ID,
		SupplierID:     &supplier,
		SupplierAmount: subtotal.Mul(dec("0.7")),
		ResellerAmount: subtotal.Mul(dec("0.2")),
		PlatformAmount: subtotal.Mul(dec("0.1")),
		Currency:       "USD",
		CreatedAt:      delivered,
	})).Error)
	return s
}

func orderItem(sku, price string, qty int) order.Item {
	return order.Item{
		ID:        uuid.New(),
		VariantID: uuid.New(),
		SKU:       sku,
		Quantity:  qty,
		UnitPrice: dec(price),
	}
}
