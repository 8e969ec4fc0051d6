package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	appreturns "github.com/erp/returns/internal/application/returns"
	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/domain/inventory"
	"github.com/erp/returns/internal/domain/ledger"
	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubGateway answers refunds with a fixed outcome and records the calls
type stubGateway struct {
	err   error
	calls []*finance.RefundRequest
}

func (g *stubGateway) Refund(_ context.Context, req *finance.RefundRequest) (*finance.RefundResponse, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return &finance.RefundResponse{
		ProviderRefundID: fmt.Sprintf("re_%d", len(g.calls)),
		Status:           finance.GatewayRefundSucceeded,
	}, nil
}

type flow struct {
	db      *gorm.DB
	seed    seed
	gateway *stubGateway
	svc     *appreturns.RMAService
	audit   *GormAuditLogRepository
	actor   uuid.UUID
}

func newFlow(t *testing.T, items ...order.Item) *flow {
	t.Helper()
	db := newTestDB(t)
	f := &flow{
		db:      db,
		seed:    seedOrder(t, db, order.PaymentMethodCard, items...),
		gateway: &stubGateway{},
		audit:   NewGormAuditLogRepository(db),
		actor:   uuid.New(),
	}
	dispatcher := appreturns.NewRefundDispatcher(f.gateway, nil, zap.NewNop())
	f.svc = appreturns.NewRMAService(NewGormTransactionScope(db), dispatcher, appreturns.Config{DefaultWindowDays: 30}, zap.NewNop())
	return f
}

func (f *flow) requestAndApprove(t *testing.T, lines ...appreturns.LineRequest) *appreturns.RMAResponse {
	t.Helper()
	ctx := context.Background()
	rma, err := f.svc.Request(ctx, appreturns.RequestInput{
		StoreID:      f.seed.store.ID,
		OrderID:      f.seed.order.ID,
		CustomerID:   &f.seed.order.CustomerID,
		ActorID:      f.seed.order.CustomerID,
		RefundMethod: returns.RefundMethodOriginal,
		Lines:        lines,
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.seed.store.ID, rma.ID, f.actor)
	require.NoError(t, err)
	return rma
}

func (f *flow) line(it order.Item, qty int, cond returns.Condition) appreturns.LineRequest {
	origin := f.seed.origin
	return appreturns.LineRequest{VariantID: it.VariantID, OriginID: &origin, Quantity: qty, ReasonCode: "changed_mind", Condition: cond}
}

func (f *flow) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func TestRMAFlow_FullReturnCommitsEverySideEffect(t *testing.T) {
	it := orderItem("SKU-1", "100", 1)
	f := newFlow(t, it)
	ctx := context.Background()

	rma := f.requestAndApprove(t, f.line(it, 1, returns.ConditionSealed))
	assert.Equal(t, fmt.Sprintf("RMA-ACME-RET-%d-0001", time.Now().Year()), rma.RMANumber)

	received, err := f.svc.Receive(ctx, f.seed.store.ID, rma.ID, f.actor)
	require.NoError(t, err)

	assert.Equal(t, returns.StatusReceived, received.Status)
	assert.True(t, dec("100").Equal(received.RefundAmount))
	assert.Equal(t, returns.RefundStatusCompleted, received.RefundStatus)
	assert.Equal(t, "re_1", received.ProviderRefundID)
	require.NotNil(t, received.CreditNoteID)

	require.Len(t, f.gateway.calls, 1)
	assert.Equal(t, "pay_123", f.gateway.calls[0].PaymentReference)
	assert.Equal(t, rma.RMANumber, f.gateway.calls[0].Reference)

	rec, err := NewGormStockRepository(f.db).FindRecord(ctx, f.seed.origin, it.VariantID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.AvailableStock)

	entries, err := NewGormLedgerRepository(f.db).FindByRMA(ctx, rma.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	total := dec("0")
	for _, e := range entries {
		assert.Equal(t, ledger.EntryTypeRefundClawback, e.Type)
		total = total.Add(e.Amount)
	}
	assert.True(t, dec("-100").Equal(total))

	cn, err := NewGormCreditNoteRepository(f.db).FindByRMA(ctx, rma.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CN-ACME-%d-0001", time.Now().Year()), cn.Number)
	assert.True(t, dec("-100").Equal(cn.Subtotal))
	assert.True(t, dec("-10").Equal(cn.Tax))

	o, err := NewGormOrderRepository(f.db).FindByIDForStore(ctx, f.seed.store.ID, f.seed.order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusFullyReturned, o.Status)
	assert.Equal(t, 1, o.Items[0].ReturnedQuantity)
}

func TestRMAFlow_ProviderFailureRollsBackEverything(t *testing.T) {
	it := orderItem("SKU-1", "50", 2)
	f := newFlow(t, it)
	ctx := context.Background()

	rec := inventory.NewRecord(f.seed.origin, it.VariantID)
	require.NoError(t, rec.Restock(4))
	require.NoError(t, NewGormStockRepository(f.db).SaveRecord(ctx, rec))

	rma := f.requestAndApprove(t, f.line(it, 2, returns.ConditionOpened))
	f.gateway.err = errors.New("provider timeout")

	_, err := f.svc.Receive(ctx, f.seed.store.ID, rma.ID, f.actor)
	require.Error(t, err)
	assert.ErrorIs(t, err, returns.ErrRefundExecutionFailed)

	loaded, err := f.svc.Get(ctx, f.seed.store.ID, rma.ID)
	require.NoError(t, err)
	assert.Equal(t, returns.StatusApproved, loaded.Status)
	assert.Equal(t, returns.RefundStatusPending, loaded.RefundStatus)

	stock, err := NewGormStockRepository(f.db).FindRecord(ctx, f.seed.origin, it.VariantID)
	require.NoError(t, err)
	assert.Equal(t, 4, stock.AvailableStock)

	assert.Zero(t, f.count(t, &models.LedgerEntryModel{}))
	assert.Zero(t, f.count(t, &models.CreditNoteModel{}))

	o, err := NewGormOrderRepository(f.db).FindByIDForStore(ctx, f.seed.store.ID, f.seed.order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, o.Status)
	assert.Zero(t, o.Items[0].ReturnedQuantity)

	f.gateway.err = nil
	received, err := f.svc.Receive(ctx, f.seed.store.ID, rma.ID, f.actor)
	require.NoError(t, err)
	cn, err := NewGormCreditNoteRepository(f.db).FindByRMA(ctx, received.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CN-ACME-%d-0001", time.Now().Year()), cn.Number)
}

func TestRMAFlow_PartialThenRemainingReturn(t *testing.T) {
	it := orderItem("SKU-1", "30", 3)
	f := newFlow(t, it)
	ctx := context.Background()

	first := f.requestAndApprove(t, f.line(it, 1, returns.ConditionDamaged))
	_, err := f.svc.Receive(ctx, f.seed.store.ID, first.ID, f.actor)
	require.NoError(t, err)

	o, err := NewGormOrderRepository(f.db).FindByIDForStore(ctx, f.seed.store.ID, f.seed.order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPartiallyReturned, o.Status)

	_, err = NewGormStockRepository(f.db).FindRecord(ctx, f.seed.origin, it.VariantID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "damaged units are not restocked")

	second := f.requestAndApprove(t, f.line(it, 2, returns.ConditionSealed))
	assert.Equal(t, fmt.Sprintf("RMA-ACME-RET-%d-0002", time.Now().Year()), second.RMANumber)
	_, err = f.svc.Receive(ctx, f.seed.store.ID, second.ID, f.actor)
	require.NoError(t, err)

	o, err = NewGormOrderRepository(f.db).FindByIDForStore(ctx, f.seed.store.ID, f.seed.order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusFullyReturned, o.Status)

	_, err = f.svc.Request(ctx, appreturns.RequestInput{
		StoreID: f.seed.store.ID, OrderID: f.seed.order.ID, ActorID: f.actor,
		Lines: []appreturns.LineRequest{f.line(it, 1, returns.ConditionSealed)},
	})
	assert.ErrorIs(t, err, returns.ErrIneligibleReturn)
}

func TestRMAFlow_AuditTrailFromEventBus(t *testing.T) {
	it := orderItem("SKU-1", "100", 1)
	f := newFlow(t, it)
	ctx := context.Background()

	handler := appreturns.NewAuditHandler(f.audit, zap.NewNop())
	f.svc.SetEventPublisher(publisherFunc(func(ctx context.Context, events ...shared.DomainEvent) error {
		for _, e := range events {
			if err := handler.Handle(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}))

	rma := f.requestAndApprove(t, f.line(it, 1, returns.ConditionSealed))
	_, err := f.svc.Receive(ctx, f.seed.store.ID, rma.ID, f.actor)
	require.NoError(t, err)

	trail, err := f.audit.FindByRMA(ctx, f.seed.store.ID, rma.ID)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, returns.StatusRequested, trail[0].Status)
	assert.Equal(t, returns.StatusApproved, trail[1].Status)
	assert.Equal(t, returns.StatusReceived, trail[2].Status)
}

type publisherFunc func(ctx context.Context, events ...shared.DomainEvent) error

func (p publisherFunc) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return p(ctx, events...)
}
