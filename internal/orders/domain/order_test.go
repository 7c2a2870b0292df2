package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/orders/domain"
)

func TestNewOrder_TotalIsSumOfLines(t *testing.T) {
	o := domain.NewOrder([]domain.OrderLine{
		{ProductID: 1, ProductName: "keyboard", Price: 250, Quantity: 2},
		{ProductID: 2, ProductName: "mouse", Price: 80, Quantity: 3},
	})

	assert.Equal(t, contracts.StatusPending, o.Status)
	assert.Equal(t, 2*250+3*80, o.TotalPrice)
}

func TestApplyStatus(t *testing.T) {
	tests := []struct {
		name        string
		current     contracts.OrderStatus
		next        contracts.OrderStatus
		wantChanged bool
		wantStatus  contracts.OrderStatus
	}{
		{"pending to confirmed", contracts.StatusPending, contracts.StatusConfirmed, true, contracts.StatusConfirmed},
		{"pending to rejected", contracts.StatusPending, contracts.StatusRejected, true, contracts.StatusRejected},
		{"duplicate terminal is a no-op", contracts.StatusConfirmed, contracts.StatusConfirmed, false, contracts.StatusConfirmed},
		{"late conflicting event is a no-op", contracts.StatusConfirmed, contracts.StatusRejected, false, contracts.StatusConfirmed},
		{"rejected stays rejected", contracts.StatusRejected, contracts.StatusConfirmed, false, contracts.StatusRejected},
		{"non-terminal target is a no-op", contracts.StatusPending, contracts.StatusPending, false, contracts.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := domain.Order{ID: 1, Status: tt.current}
			changed := o.ApplyStatus(tt.next)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantStatus, o.Status)
		})
	}
}

func TestApplyStatus_Idempotent(t *testing.T) {
	o := domain.Order{ID: 1, Status: contracts.StatusPending}

	require.True(t, o.ApplyStatus(contracts.StatusConfirmed))
	require.False(t, o.ApplyStatus(contracts.StatusConfirmed))
	assert.Equal(t, contracts.StatusConfirmed, o.Status)
}

func TestCreatedEvent(t *testing.T) {
	o := domain.NewOrder([]domain.OrderLine{
		{ProductID: 1, ProductName: "keyboard", Price: 250, Quantity: 2},
		{ProductID: 2, ProductName: "mouse", Price: 80, Quantity: 1},
	})
	o.ID = 42

	ev := o.CreatedEvent()

	assert.Equal(t, 42, ev.OrderID)
	assert.Equal(t, o.TotalPrice, ev.TotalPrice)
	assert.Equal(t, []contracts.OrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}, ev.Items)
}
