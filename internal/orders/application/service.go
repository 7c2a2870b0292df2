package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/orders/domain"
	"github.com/asyncorders/asyncorders/pkg/tracing"
)

var (
	ErrUnknownProduct = errors.New("product not found")
	ErrOrderNotFound  = errors.New("order not found")
)

// LineRequest is one validated order line from the API layer; quantity is
// already bounded to [1,100] there.
type LineRequest struct {
	ProductID int
	Quantity  int
}

type Service struct {
	log     *slog.Logger
	repo    OrderRepository
	catalog ProductCatalog
}

func NewService(log *slog.Logger, repo OrderRepository, catalog ProductCatalog) *Service {
	return &Service{log: log, repo: repo, catalog: catalog}
}

// CreateOrder prices the requested lines against the catalog, persists the
// PENDING order together with its order-created event in one transaction, and
// returns the stored order. A line referencing an unknown product fails the
// whole request with ErrUnknownProduct.
func (s *Service) CreateOrder(ctx context.Context, items []LineRequest) (domain.Order, error) {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load products: %w", err)
	}

	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		p, found := products[item.ProductID]
		if !found {
			return domain.Order{}, fmt.Errorf("product with id %d NOT found: %w", item.ProductID, ErrUnknownProduct)
		}
		lines = append(lines, domain.OrderLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    item.Quantity,
		})
	}

	order, err := s.repo.CreateWithOutbox(ctx, domain.NewOrder(lines), tracing.Traceparent(ctx))
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.log.Info("order created", "order_id", order.ID, "total_price", order.TotalPrice)
	return order, nil
}

// ApplyStatusChange is the state machine step driven by the
// order-status-changed consumer. An unknown order is logged and dropped; a
// duplicate or late event is a no-op. Only a genuinely new terminal status
// causes a write.
func (s *Service) ApplyStatusChange(ctx context.Context, event contracts.OrderStatusChanged) error {
	order, err := s.repo.GetOrder(ctx, event.OrderID)
	if errors.Is(err, ErrOrderNotFound) {
		s.log.Error("order NOT found for status change", "order_id", event.OrderID, "status", event.Status)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load order %d: %w", event.OrderID, err)
	}

	if !order.ApplyStatus(event.Status) {
		s.log.Info("status change already applied, skipping",
			"order_id", order.ID, "status", order.Status, "event_status", event.Status)
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, order.Status); err != nil {
		return fmt.Errorf("update order %d status: %w", order.ID, err)
	}

	s.log.Info("order status updated", "order_id", order.ID, "status", order.Status)
	return nil
}

func (s *Service) GetOrder(ctx context.Context, id int) (domain.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) RetrieveAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListOrders(ctx)
}
