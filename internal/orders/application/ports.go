package application

import (
	"context"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/orders/domain"
)

type OrderRepository interface {
	// CreateWithOutbox persists the order, its lines and the order-created
	// outbox row in one transaction and returns the order with its
	// store-assigned id.
	CreateWithOutbox(ctx context.Context, o domain.Order, traceparent string) (domain.Order, error)
	GetOrder(ctx context.Context, id int) (domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int, status contracts.OrderStatus) error
}

// ProductCatalog is the read model used to price an order at creation time.
type ProductCatalog interface {
	ProductsByIDs(ctx context.Context, ids []int) (map[int]domain.Product, error)
}
