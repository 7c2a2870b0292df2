package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/asyncorders/asyncorders/internal/contracts"
)

const ConfirmedMessage = "order validated and stock reserved"

// Reservation is the all-or-nothing outcome of reserving stock for one order.
// When OK, Decrements lists every stock mutation to apply; otherwise Message
// concatenates the per-line failure reasons in item input order and no
// decrement may be applied.
type Reservation struct {
	OrderID    int
	OK         bool
	Message    string
	Decrements []Decrement
}

type Decrement struct {
	ProductID int
	Quantity  int
}

// Reserve classifies every order line against the product snapshot and either
// plans a decrement for each line or rejects the whole order. A line fails as
// either unknown (no such product) or insufficient (requested more than is in
// stock). Lines are checked against the running remainder so an order that
// references the same product twice cannot overdraw it.
func Reserve(orderID int, items []contracts.OrderItem, products map[int]Product) Reservation {
	remaining := make(map[int]int, len(products))
	for id, p := range products {
		remaining[id] = p.NumInStock
	}

	var reasons []string
	decrements := make([]Decrement, 0, len(items))

	for _, item := range items {
		p, found := products[item.ProductID]
		if !found {
			reasons = append(reasons, fmt.Sprintf("product %d NOT found", item.ProductID))
			continue
		}
		if remaining[item.ProductID] < item.Quantity {
			reasons = append(reasons, fmt.Sprintf(
				"insufficient stock for product %s (Available: %d, Requested: %d)",
				p.Name, remaining[item.ProductID], item.Quantity))
			continue
		}
		remaining[item.ProductID] -= item.Quantity
		decrements = append(decrements, Decrement{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	if len(reasons) > 0 {
		return Reservation{
			OrderID: orderID,
			OK:      false,
			Message: strings.Join(reasons, "; "),
		}
	}
	return Reservation{
		OrderID:    orderID,
		OK:         true,
		Message:    ConfirmedMessage,
		Decrements: decrements,
	}
}

// StatusEvent converts the reservation outcome into the canonical
// order-status-changed event.
func (r Reservation) StatusEvent(at time.Time) contracts.OrderStatusChanged {
	status := contracts.StatusConfirmed
	if !r.OK {
		status = contracts.StatusRejected
	}
	return contracts.OrderStatusChanged{
		OrderID:    r.OrderID,
		Status:     status,
		Message:    r.Message,
		PrevStatus: contracts.StatusPending,
		OccurredAt: at,
	}
}
