package application

import (
	"context"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/products/domain"
)

type ProductRepository interface {
	// ReserveWithOutbox runs the whole reservation for one order in a single
	// transaction: lock the referenced products, plan the outcome, apply the
	// stock decrements (all or none) and append the resulting
	// order-status-changed event to the outbox.
	ReserveWithOutbox(ctx context.Context, event contracts.OrderCreated, traceparent string) (domain.Reservation, error)

	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	GetProduct(ctx context.Context, id int) (domain.Product, error)
	ListProducts(ctx context.Context, nameFilter string) ([]domain.Product, error)
	UpdateProductByMkt(ctx context.Context, mkt string, upd domain.ProductUpdate) (domain.Product, error)
	DeleteProductByMkt(ctx context.Context, mkt string) error
}

// StatusPublisher publishes an order-status-changed event directly to the
// broker, bypassing the outbox. Used only for the fault fallback path, where
// the transaction that would have carried the outbox row has already rolled
// back.
type StatusPublisher interface {
	PublishStatusChanged(ctx context.Context, event contracts.OrderStatusChanged) error
}
