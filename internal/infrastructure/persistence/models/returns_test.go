package models

import (
	"testing"
	"time"

	"github.com/erp/returns/internal/domain/returns"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnLineModel_KeepsLineVariant(t *testing.T) {
	requested := returns.RequestedLine{
		ID:              uuid.New(),
		OrderItemID:     uuid.New(),
		VariantID:       uuid.New(),
		SKU:             "SKU-1",
		OriginID:        uuid.New(),
		Quantity:        1,
		OrderedQuantity: 2,
		Condition:       returns.ConditionOpened,
		UnitPrice:       decimal.NewFromInt(50),
		RefundAmount:    decimal.NewFromInt(25),
	}
	rmaID := uuid.New()

	m := ReturnLineModelFromDomain(rmaID, 0, requested)
	assert.Empty(t, m.ShippingPayer)
	assert.Nil(t, m.ShippingFrozenAt)
	_, ok := m.ToDomain().(returns.RequestedLine)
	assert.True(t, ok)

	frozen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	approved := requested.Approve(returns.ReturnShippingSnapshot{
		Payer:     returns.PayerCustomer,
		Amount:    decimal.NewFromInt(5),
		RuleScope: returns.RuleScopeStore,
		FrozenAt:  frozen,
	})
	m = ReturnLineModelFromDomain(rmaID, 0, approved)
	assert.Equal(t, "customer", m.ShippingPayer)

	back, ok := m.ToDomain().(returns.ApprovedLine)
	require.True(t, ok)
	assert.Equal(t, returns.PayerCustomer, back.Shipping.Payer)
	assert.True(t, back.Shipping.FrozenAt.Equal(frozen))
	assert.Equal(t, requested.ID, back.ID)
}
