package contracts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asyncorders/asyncorders/internal/contracts"
)

func TestOrderCreated_Validate(t *testing.T) {
	valid := contracts.OrderCreated{
		OrderID:    1,
		TotalPrice: 100,
		Items:      []contracts.OrderItem{{ProductID: 1, Quantity: 2}},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		event contracts.OrderCreated
	}{
		{"zero order id", contracts.OrderCreated{Items: []contracts.OrderItem{{ProductID: 1, Quantity: 1}}}},
		{"no items", contracts.OrderCreated{OrderID: 1}},
		{"zero product id", contracts.OrderCreated{OrderID: 1, Items: []contracts.OrderItem{{Quantity: 1}}}},
		{"zero quantity", contracts.OrderCreated{OrderID: 1, Items: []contracts.OrderItem{{ProductID: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.event.Validate())
		})
	}
}

func TestOrderStatusChanged_Validate(t *testing.T) {
	assert.NoError(t, contracts.OrderStatusChanged{OrderID: 1, Status: contracts.StatusConfirmed}.Validate())
	assert.NoError(t, contracts.OrderStatusChanged{OrderID: 1, Status: contracts.StatusRejected}.Validate())
	assert.Error(t, contracts.OrderStatusChanged{OrderID: 1, Status: contracts.StatusPending}.Validate())
	assert.Error(t, contracts.OrderStatusChanged{OrderID: 0, Status: contracts.StatusConfirmed}.Validate())
}

func TestEventKeysPartitionByOrder(t *testing.T) {
	created := contracts.OrderCreated{OrderID: 42}
	changed := contracts.OrderStatusChanged{OrderID: 42, Status: contracts.StatusConfirmed}

	// both event types of one order must share a partition key
	assert.Equal(t, []byte("42"), created.Key())
	assert.Equal(t, created.Key(), changed.Key())
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, contracts.StatusConfirmed.IsTerminal())
	assert.True(t, contracts.StatusRejected.IsTerminal())
	assert.False(t, contracts.StatusPending.IsTerminal())
	assert.False(t, contracts.OrderStatus("SHIPPED").IsTerminal())
}
