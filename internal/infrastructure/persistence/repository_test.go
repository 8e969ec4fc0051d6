package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/domain/inventory"
	"github.com/erp/returns/internal/domain/ledger"
	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRMA(t *testing.T, s seed, number string) *returns.ReturnRequest {
	t.Helper()
	it := s.order.Items[0]
	rma, err := returns.NewReturnRequest(returns.NewReturnRequestParams{
		StoreID:      s.store.ID,
		RMANumber:    number,
		Type:         returns.TypeReturn,
		OrderID:      s.order.ID,
		CustomerID:   &s.order.CustomerID,
		RefundMethod: returns.RefundMethodOriginal,
		RequestedBy:  s.order.CustomerID,
		Lines: []returns.RequestedLine{{
			OrderItemID:     it.ID,
			VariantID:       it.VariantID,
			SKU:             it.SKU,
			OriginID:        s.origin,
			Quantity:        1,
			OrderedQuantity: it.Quantity,
			Condition:       returns.ConditionSealed,
			UnitPrice:       it.UnitPrice,
			RefundAmount:    it.UnitPrice,
		}},
	})
	require.NoError(t, err)
	return rma
}

func TestGormReturnRequestRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	s := seedOrder(t, db, order.PaymentMethodCard, orderItem("SKU-1", "100", 2))
	repo := NewGormReturnRequestRepository(db)
	ctx := context.Background()

	rma := newRMA(t, s, "RMA-ACME-RET-2026-0001")
	require.NoError(t, repo.Create(ctx, rma))

	loaded, err := repo.FindByIDForStore(ctx, s.store.ID, rma.ID)
	require.NoError(t, err)
	assert.Equal(t, rma.RMANumber, loaded.RMANumber)
	assert.Equal(t, returns.StatusRequested, loaded.Status)
	require.Len(t, loaded.Lines(), 1)
	_, requested := loaded.Lines()[0].(returns.RequestedLine)
	assert.True(t, requested)

	_, err = repo.FindByIDForStore(ctx, uuid.New(), rma.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormReturnRequestRepository_SaveWithLockPersistsSnapshot(t *testing.T) {
	db := newTestDB(t)
	s := seedOrder(t, db, order.PaymentMethodCard, orderItem("SKU-1", "100", 1))
	repo := NewGormReturnRequestRepository(db)
	ctx := context.Background()

	rma := newRMA(t, s, "RMA-ACME-RET-2026-0001")
	require.NoError(t, repo.Create(ctx, rma))

	lineID := rma.Lines()[0].Details().ID
	ruleID := uuid.New()
	frozen := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, rma.Approve(uuid.New(), map[uuid.UUID]returns.ReturnShippingSnapshot{
		lineID: {Payer: returns.PayerSupplier, Amount: dec("7.5"), RuleID: &ruleID, RuleScope: returns.RuleScopeSKU, FrozenAt: frozen},
	}))
	require.NoError(t, repo.SaveWithLock(ctx, rma))
	assert.Equal(t, 2, rma.Version)

	loaded, err := repo.FindByIDForStore(ctx, s.store.ID, rma.ID)
	require.NoError(t, err)
	assert.Equal(t, returns.StatusApproved, loaded.Status)
	lines, err := loaded.ApprovedLines()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, returns.PayerSupplier, lines[0].Shipping.Payer)
	assert.True(t, dec("7.5").Equal(lines[0].Shipping.Amount))
	assert.Equal(t, ruleID, *lines[0].Shipping.RuleID)
	assert.Equal(t, returns.RuleScopeSKU, lines[0].Shipping.RuleScope)
}

func TestGormReturnRequestRepository_StaleVersionConflicts(t *testing.T) {
	db := newTestDB(t)
	s := seedOrder(t, db, order.PaymentMethodCard, orderItem("SKU-1", "100", 1))
	repo := NewGormReturnRequestRepository(db)
	ctx := context.Background()

	rma := newRMA(t, s, "RMA-ACME-RET-2026-0001")
	require.NoError(t, repo.Create(ctx, rma))

	first, err := repo.FindByIDForStore(ctx, s.store.ID, rma.ID)
	require.NoError(t, err)
	second, err := repo.FindByIDForStore(ctx, s.store.ID, rma.ID)
	require.NoError(t, err)

	require.NoError(t, first.Reject(uuid.New(), "damaged in transit"))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, second.Reject(uuid.New(), "changed mind"))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, second), shared.ErrConcurrencyConflict)
}

func TestGormReturnRequestRepository_DuplicateNumber(t *testing.T) {
	db := newTestDB(t)
	s := seedOrder(t, db, order.PaymentMethodCard, orderItem("SKU-1", "100", 2))
	repo := NewGormReturnRequestRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRMA(t, s, "RMA-ACME-RET-2026-0001")))
	err := repo.Create(ctx, newRMA(t, s, "RMA-ACME-RET-2026-0001"))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormReturnRequestRepository_Queries(t *testing.T) {
	db := newTestDB(t)
	s := seedOrder(t, db, order.PaymentMethodCard, orderItem("SKU-1", "100", 5))
	repo := NewGormReturnRequestRepository(db)
	ctx := context.Background()

	for i, n := range []string{"0001", "0002", "0003"} {
		rma := newRMA(t, s, "RMA-ACME-RET-2026-"+n)
		require.NoError(t, repo.Create(ctx, rma))
		if i == 0 {
			require.NoError(t, rma.Reject(uuid.New(), "not eligible"))
			require.NoError(t, repo.SaveWithLock(ctx, rma))
		}
	}

	open, err := repo.FindOpenByOrder(ctx, s.store.ID, s.order.ID)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	filter := returns.ListFilter{Filter: shared.DefaultFilter(), Status: returns.StatusRequested}
	filter.PageSize = 1
	page, total, err := repo.FindAllForStore(ctx, s.store.ID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 1)

	filter = returns.ListFilter{Filter: shared.DefaultFilter(), OrderID: &s.order.ID}
	filter.OrderBy = "rma_number; DROP TABLE return_requests"
	all, total, err := repo.FindAllForStore(ctx, s.store.ID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)
}

func TestGormOrderRepository_SaveReturnProgress(t *testing.T) {
	db := newTestDB(t)
	s := seedOrder(t, db, order.PaymentMethodCard, orderItem("SKU-1", "50", 2), orderItem("SKU-2", "20", 1))
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o, err := repo.FindByIDForStore(ctx, s.store.ID, s.order.ID)
	require.NoError(t, err)
	require.Len(t, o.Items, 2)
	assert.Equal(t, s.origin, *o.Items[0].FulfillmentOriginID)

	stale, err := repo.FindByIDForStore(ctx, s.store.ID, s.order.ID)
	require.NoError(t, err)

	require.NoError(t, o.RecordReturn(map[uuid.UUID]int{o.Items[0].ID: 1}))
	require.NoError(t, repo.SaveReturnProgress(ctx, o))

	reloaded, err := repo.FindByIDForStore(ctx, s.store.ID, s.order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPartiallyReturned, reloaded.Status)
	assert.Equal(t, 1, reloaded.Items[0].ReturnedQuantity)
	assert.Equal(t, 2, reloaded.Version)

	require.NoError(t, stale.RecordReturn(map[uuid.UUID]int{stale.Items[1].ID: 1}))
	assert.ErrorIs(t, repo.SaveReturnProgress(ctx, stale), shared.ErrConcurrencyConflict)

	_, err = repo.FindByIDForStore(ctx, uuid.New(), s.order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_FindByIDForStoreForUpdate(t *testing.T) {
	db := newTestDB(t)
	s := seedOrder(t, db, order.PaymentMethodCard, orderItem("SKU-1", "50", 2))
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		o, err := NewGormOrderRepository(tx).FindByIDForStoreForUpdate(ctx, s.store.ID, s.order.ID)
		require.NoError(t, err)
		require.Len(t, o.Items, 1)
		assert.Equal(t, 2, o.Items[0].Returnable())
		return nil
	})
	require.NoError(t, err)

	_, err = repo.FindByIDForStoreForUpdate(ctx, uuid.New(), s.order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormStockRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockRepository(db)
	ctx := context.Background()
	origin, variant, orderID := uuid.New(), uuid.New(), uuid.New()

	_, err := repo.FindRecord(ctx, origin, variant)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	rec := inventory.NewRecord(origin, variant)
	require.NoError(t, rec.Restock(3))
	require.NoError(t, repo.SaveRecord(ctx, rec))
	assert.Equal(t, 1, rec.Version)

	stale, err := repo.FindRecord(ctx, origin, variant)
	require.NoError(t, err)

	require.NoError(t, rec.Restock(2))
	require.NoError(t, repo.SaveRecord(ctx, rec))

	loaded, err := repo.FindRecord(ctx, origin, variant)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.AvailableStock)

	require.NoError(t, stale.Restock(1))
	assert.ErrorIs(t, repo.SaveRecord(ctx, stale), shared.ErrConcurrencyConflict)

	now := time.Now()
	for i, qty := range []int{2, 4} {
		require.NoError(t, db.Create(&models.StockReservationModel{
			ID: uuid.New(), OrderID: orderID, VariantID: variant, OriginID: origin,
			Quantity: qty, Status: string(inventory.ReservationReserved),
			CreatedAt: now.Add(time.Duration(i) * time.Second), UpdatedAt: now,
		}).Error)
	}
	held, err := repo.FindReserved(ctx, orderID, variant, origin)
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.Equal(t, 2, held[0].Quantity)

	assert.Equal(t, 2, held[0].ReleaseUpTo(3))
	require.NoError(t, repo.SaveReservation(ctx, held[0]))

	held, err = repo.FindReserved(ctx, orderID, variant, origin)
	require.NoError(t, err)
	assert.Len(t, held, 1)
}

func TestGormLedgerRepository(t *testing.T) {
	db := newTestDB(t)
	s := seedOrder(t, db, order.PaymentMethodCard, orderItem("SKU-1", "100", 1))
	repo := NewGormLedgerRepository(db)
	ctx := context.Background()

	split, err := repo.FindSplitByOrder(ctx, s.order.ID)
	require.NoError(t, err)
	assert.True(t, dec("70").Equal(split.SupplierAmount))

	_, err = repo.FindSplitByOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	rmaID := uuid.New()
	entry, err := ledger.NewReversalEntry(ledger.ReversalParams{
		StoreID: s.store.ID, OrderID: s.order.ID, RMAID: rmaID,
		Party: ledger.PartySupplier, Type: ledger.EntryTypeRefundClawback,
		Amount: dec("70"), Currency: "USD", Reference: "RMA-ACME-RET-2026-0001",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, entry))
	require.NoError(t, repo.Append(ctx))

	entries, err := repo.FindByRMA(ctx, rmaID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, dec("-70").Equal(entries[0].Amount))
}

func TestGormCreditNoteRepository(t *testing.T) {
	db := newTestDB(t)
	s := seedOrder(t, db, order.PaymentMethodCard, orderItem("SKU-1", "100", 1))
	invoices := NewGormInvoiceRepository(db)
	notes := NewGormCreditNoteRepository(db)
	ctx := context.Background()

	inv, err := invoices.FindByOrder(ctx, s.order.ID)
	require.NoError(t, err)

	rmaID := uuid.New()
	cn, err := finance.NewCreditNote(finance.CreditNoteParams{
		Invoice: inv, RMAID: rmaID, Number: "CN-ACME-2026-0001",
		Subtotal: dec("100"), Tax: dec("10"),
	})
	require.NoError(t, err)
	require.NoError(t, notes.Create(ctx, cn))

	loaded, err := notes.FindByRMA(ctx, rmaID)
	require.NoError(t, err)
	assert.True(t, dec("-110").Equal(loaded.Total))
	assert.Equal(t, finance.CreditNoteStatusIssued, loaded.Status)

	again, err := finance.NewCreditNote(finance.CreditNoteParams{
		Invoice: inv, RMAID: rmaID, Number: "CN-ACME-2026-0002",
		Subtotal: dec("1"), Tax: dec("0"),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, notes.Create(ctx, again), shared.ErrAlreadyExists)

	_, err = invoices.FindByOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormShippingRuleRepository(t *testing.T) {
	db := newTestDB(t)
	storeID, origin := uuid.New(), uuid.New()
	repo := NewGormShippingRuleRepository(db)
	now := time.Now()

	rules := []returns.ShippingRule{
		{
			ID: uuid.New(), StoreID: storeID, Scope: returns.RuleScopeStore,
			Payer: returns.PayerCustomer, Mode: returns.CostModeFlat, Amount: dec("5"),
			ZoneSurcharges:   map[string]decimal.Decimal{"US-AK": dec("12.5")},
			OriginSurcharges: map[uuid.UUID]decimal.Decimal{origin: dec("4")},
			Active:           true, UpdatedAt: now,
		},
		{
			ID: uuid.New(), StoreID: storeID, Scope: returns.RuleScopeSKU, SKU: "SKU-1",
			Payer: returns.PayerSupplier, Mode: returns.CostModeFlat, Amount: dec("3"),
			Active: false, UpdatedAt: now,
		},
		{
			ID: uuid.New(), StoreID: uuid.New(), Scope: returns.RuleScopeStore,
			Payer: returns.PayerPlatform, Mode: returns.CostModeFlat, Amount: dec("1"),
			Active: true, UpdatedAt: now,
		},
	}
	for _, r := range rules {
		require.NoError(t, db.Create(models.ShippingRuleModelFromDomain(r)).Error)
	}
	// GORM skips zero-value bools on insert when a default is declared
	require.NoError(t, db.Model(&models.ShippingRuleModel{}).Where("id = ?", rules[1].ID).Update("active", false).Error)

	found, err := repo.FindActiveForStore(context.Background(), storeID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, rules[0].ID, found[0].ID)
	assert.True(t, dec("12.5").Equal(found[0].ZoneSurcharges["US-AK"]))
	assert.True(t, dec("4").Equal(found[0].OriginSurcharges[origin]))
}
