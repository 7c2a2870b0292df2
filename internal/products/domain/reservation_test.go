package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/products/domain"
)

func product(id int, name string, stock int) domain.Product {
	return domain.Product{ID: id, Name: name, Price: 100, NumInStock: stock, Mkt: "mkt-" + name}
}

func TestReserve_AllLinesOK(t *testing.T) {
	products := map[int]domain.Product{
		1: product(1, "keyboard", 10),
		2: product(2, "mouse", 50),
	}
	items := []contracts.OrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}

	res := domain.Reserve(7, items, products)

	require.True(t, res.OK)
	assert.Equal(t, "order validated and stock reserved", res.Message)
	assert.Equal(t, []domain.Decrement{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}, res.Decrements)
}

func TestReserve_AllOrNothing(t *testing.T) {
	products := map[int]domain.Product{
		1: product(1, "keyboard", 10),
		2: product(2, "mouse", 5),
	}
	items := []contracts.OrderItem{
		{ProductID: 1, Quantity: 5},
		{ProductID: 2, Quantity: 100},
	}

	res := domain.Reserve(7, items, products)

	require.False(t, res.OK)
	// the sufficient line must not be decremented either
	assert.Empty(t, res.Decrements)
	assert.Equal(t, "insufficient stock for product mouse (Available: 5, Requested: 100)", res.Message)
}

func TestReserve_MissingProduct(t *testing.T) {
	products := map[int]domain.Product{
		1: product(1, "keyboard", 10),
	}
	items := []contracts.OrderItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 44, Quantity: 2},
	}

	res := domain.Reserve(7, items, products)

	require.False(t, res.OK)
	assert.Empty(t, res.Decrements)
	assert.Contains(t, res.Message, "product 44 NOT found")
}

func TestReserve_ReasonsJoinedInItemOrder(t *testing.T) {
	products := map[int]domain.Product{
		2: product(2, "mouse", 1),
	}
	items := []contracts.OrderItem{
		{ProductID: 44, Quantity: 1},
		{ProductID: 2, Quantity: 3},
	}

	res := domain.Reserve(7, items, products)

	require.False(t, res.OK)
	assert.Equal(t,
		"product 44 NOT found; insufficient stock for product mouse (Available: 1, Requested: 3)",
		res.Message)
}

func TestReserve_RepeatedProductCannotOverdraw(t *testing.T) {
	products := map[int]domain.Product{
		1: product(1, "keyboard", 5),
	}
	items := []contracts.OrderItem{
		{ProductID: 1, Quantity: 3},
		{ProductID: 1, Quantity: 3},
	}

	res := domain.Reserve(7, items, products)

	require.False(t, res.OK)
	assert.Contains(t, res.Message, "insufficient stock for product keyboard (Available: 2, Requested: 3)")
}

func TestReservation_StatusEvent(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	confirmed := domain.Reservation{OrderID: 7, OK: true, Message: domain.ConfirmedMessage}
	ev := confirmed.StatusEvent(at)
	assert.Equal(t, contracts.StatusConfirmed, ev.Status)
	assert.Equal(t, contracts.StatusPending, ev.PrevStatus)
	assert.Equal(t, 7, ev.OrderID)
	assert.Equal(t, at, ev.OccurredAt)

	rejected := domain.Reservation{OrderID: 7, OK: false, Message: "product 44 NOT found"}
	ev = rejected.StatusEvent(at)
	assert.Equal(t, contracts.StatusRejected, ev.Status)
	assert.Equal(t, "product 44 NOT found", ev.Message)
}
