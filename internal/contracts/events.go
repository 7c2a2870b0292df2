// Package contracts defines the canonical event schemas exchanged between the
// orders, products and notifications services. Both consumers of
// order-status-changed decode the same payload; there is exactly one
// definition of each event in the whole system.
package contracts

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Topic names. Every message is keyed by orderId so all events of one order
// land on the same partition and are consumed in publish order.
const (
	TopicOrderCreated       = "order-created"
	TopicOrderStatusChanged = "order-status-changed"
	TopicDeadLetter         = "order-events.dlt"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusRejected  OrderStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusRejected
}

// OrderCreated is published by orders-service after the order row has
// durably committed, and consumed by products-service.
type OrderCreated struct {
	OrderID    int         `json:"orderId"`
	TotalPrice int         `json:"totalPrice"`
	Items      []OrderItem `json:"items"`
}

type OrderItem struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (e OrderCreated) Key() []byte {
	return []byte(strconv.Itoa(e.OrderID))
}

func (e OrderCreated) Validate() error {
	if e.OrderID < 1 {
		return fmt.Errorf("orderId must be >= 1, got %d", e.OrderID)
	}
	if len(e.Items) == 0 {
		return errors.New("order has no items")
	}
	for _, item := range e.Items {
		if item.ProductID < 1 {
			return fmt.Errorf("productId must be >= 1, got %d", item.ProductID)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("quantity must be >= 1, got %d", item.Quantity)
		}
	}
	return nil
}

// OrderStatusChanged is published by products-service once reservation has
// reached a terminal outcome, and consumed independently by orders-service
// (status sync) and notifications-service (customer messaging).
//
// Contact fields are optional; an event without an email simply produces no
// notification.
type OrderStatusChanged struct {
	OrderID       int         `json:"orderId"`
	Status        OrderStatus `json:"status"`
	Message       string      `json:"message,omitempty"`
	PrevStatus    OrderStatus `json:"prevStatus,omitempty"`
	CustomerEmail string      `json:"customerEmail,omitempty"`
	CustomerPhone string      `json:"customerPhone,omitempty"`
	OccurredAt    time.Time   `json:"occurredAt"`
}

func (e OrderStatusChanged) Key() []byte {
	return []byte(strconv.Itoa(e.OrderID))
}

func (e OrderStatusChanged) Validate() error {
	if e.OrderID < 1 {
		return fmt.Errorf("orderId must be >= 1, got %d", e.OrderID)
	}
	if !e.Status.IsTerminal() {
		return fmt.Errorf("status %q is not a terminal order status", e.Status)
	}
	return nil
}
