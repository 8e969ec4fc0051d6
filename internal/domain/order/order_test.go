package order

import (
	"errors"
	"testing"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoItemOrder() *Order {
	origin := uuid.New()
	return &Order{
		ID:     uuid.New(),
		Number: "SO-1",
		Status: StatusDelivered,
		Items: []Item{
			{ID: uuid.New(), VariantID: uuid.New(), Quantity: 2, UnitPrice: decimal.NewFromInt(50), FulfillmentOriginID: &origin},
			{ID: uuid.New(), VariantID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(20), FulfillmentOriginID: &origin},
		},
	}
}

func TestOrder_RecordReturn(t *testing.T) {
	t.Run("partial return", func(t *testing.T) {
		o := twoItemOrder()

		require.NoError(t, o.RecordReturn(map[uuid.UUID]int{o.Items[0].ID: 1}))

		assert.Equal(t, StatusPartiallyReturned, o.Status)
		assert.Equal(t, 1, o.Items[0].ReturnedQuantity)
	})

	t.Run("every unit returned", func(t *testing.T) {
		o := twoItemOrder()

		require.NoError(t, o.RecordReturn(map[uuid.UUID]int{o.Items[0].ID: 2, o.Items[1].ID: 1}))

		assert.Equal(t, StatusFullyReturned, o.Status)
	})

	t.Run("across two returns", func(t *testing.T) {
		o := twoItemOrder()
		require.NoError(t, o.RecordReturn(map[uuid.UUID]int{o.Items[0].ID: 2}))
		assert.Equal(t, StatusPartiallyReturned, o.Status)

		require.NoError(t, o.RecordReturn(map[uuid.UUID]int{o.Items[1].ID: 1}))
		assert.Equal(t, StatusFullyReturned, o.Status)
	})

	t.Run("over-return is rejected", func(t *testing.T) {
		o := twoItemOrder()
		err := o.RecordReturn(map[uuid.UUID]int{o.Items[1].ID: 2})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Equal(t, StatusDelivered, o.Status)
	})
}

func TestOrder_CheckReturn(t *testing.T) {
	o := twoItemOrder()
	require.NoError(t, o.RecordReturn(map[uuid.UUID]int{o.Items[1].ID: 1}))

	assert.NoError(t, o.CheckReturn(map[uuid.UUID]int{o.Items[0].ID: 2}))

	err := o.CheckReturn(map[uuid.UUID]int{o.Items[1].ID: 1})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Contains(t, err.Error(), "exceeds remaining 0")

	assert.ErrorIs(t, o.CheckReturn(map[uuid.UUID]int{uuid.New(): 1}), shared.ErrInvalidInput)
	assert.Equal(t, 0, o.Items[0].ReturnedQuantity)
}

func TestOrder_RecordReturnIsAllOrNothing(t *testing.T) {
	o := twoItemOrder()

	err := o.RecordReturn(map[uuid.UUID]int{o.Items[0].ID: 1, o.Items[1].ID: 5})

	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, 0, o.Items[0].ReturnedQuantity)
	assert.Equal(t, 0, o.Items[1].ReturnedQuantity)
	assert.Equal(t, StatusDelivered, o.Status)
}

func TestOrder_ItemFor(t *testing.T) {
	o := twoItemOrder()
	variant := o.Items[0].VariantID
	origin := *o.Items[0].FulfillmentOriginID

	it, ok := o.ItemFor(variant, nil)
	require.True(t, ok)
	assert.Equal(t, o.Items[0].ID, it.ID)

	_, ok = o.ItemFor(variant, &origin)
	assert.True(t, ok)

	other := uuid.New()
	_, ok = o.ItemFor(variant, &other)
	assert.False(t, ok)

	_, ok = o.ItemFor(uuid.New(), nil)
	assert.False(t, ok)
}

func TestPaymentMethod_Settlement(t *testing.T) {
	tests := []struct {
		method PaymentMethod
		want   Settlement
	}{
		{PaymentMethodCard, SettlementProvider},
		{PaymentMethodWallet, SettlementProvider},
		{PaymentMethodCOD, SettlementCash},
		{PaymentMethodCODPartial, SettlementCash},
	}
	for _, tt := range tests {
		got, err := tt.method.Settlement()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.method)
	}

	_, err := ParsePaymentMethod("paypal")
	assert.Error(t, err)
}
