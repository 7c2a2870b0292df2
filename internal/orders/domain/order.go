package domain

import (
	"time"

	"github.com/asyncorders/asyncorders/internal/contracts"
)

// Order is the aggregate owned by orders-service. It is created PENDING and
// moves exactly once to CONFIRMED or REJECTED when the reservation outcome
// arrives; terminal states are final.
type Order struct {
	ID         int
	CreatedAt  time.Time
	Status     contracts.OrderStatus
	TotalPrice int
	Lines      []OrderLine
}

// OrderLine snapshots the product name and unit price at creation time so the
// order stays readable after the catalog changes.
type OrderLine struct {
	ProductID   int
	ProductName string
	Price       int
	Quantity    int
}

// Product is the slice of the catalog this service reads when pricing an
// order: id, display name and current unit price.
type Product struct {
	ID    int
	Name  string
	Price int
}

// NewOrder builds a PENDING order from priced lines. The total is the sum of
// quantity times unit price per line.
func NewOrder(lines []OrderLine) Order {
	var total int
	for _, l := range lines {
		total += l.Quantity * l.Price
	}
	return Order{
		Status:     contracts.StatusPending,
		TotalPrice: total,
		Lines:      lines,
	}
}

// ApplyStatus transitions the order to next, reporting whether anything
// changed. Re-delivery of an already-applied status and late events for an
// order that is already terminal are no-ops, not errors; that is what makes
// the status consumer safe under at-least-once delivery.
func (o *Order) ApplyStatus(next contracts.OrderStatus) bool {
	if o.Status == next || o.Status.IsTerminal() || !next.IsTerminal() {
		return false
	}
	o.Status = next
	return true
}

// CreatedEvent renders the order as the canonical order-created event.
func (o Order) CreatedEvent() contracts.OrderCreated {
	items := make([]contracts.OrderItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, contracts.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return contracts.OrderCreated{
		OrderID:    o.ID,
		TotalPrice: o.TotalPrice,
		Items:      items,
	}
}
