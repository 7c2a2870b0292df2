package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/products/domain"
	"github.com/asyncorders/asyncorders/pkg/tracing"
)

type Service struct {
	log      *slog.Logger
	repo     ProductRepository
	fallback StatusPublisher
	now      func() time.Time
}

func NewService(log *slog.Logger, repo ProductRepository, fallback StatusPublisher) *Service {
	return &Service{log: log, repo: repo, fallback: fallback, now: time.Now}
}

// HandleOrderCreated is the saga step owned by this service: reserve stock
// for the order and emit its terminal status. A domain rejection (missing
// product, insufficient stock) is a normal outcome carried by the outbox
// event; an infrastructure fault additionally publishes a REJECTED event
// directly to the broker so the order never hangs in PENDING, and is then
// considered handled.
func (s *Service) HandleOrderCreated(ctx context.Context, event contracts.OrderCreated) error {
	res, err := s.repo.ReserveWithOutbox(ctx, event, tracing.Traceparent(ctx))
	if err != nil {
		s.log.Error("reservation failed", "order_id", event.OrderID, "err", err)

		rejected := contracts.OrderStatusChanged{
			OrderID:    event.OrderID,
			Status:     contracts.StatusRejected,
			Message:    fmt.Sprintf("error processing order : %v", err),
			PrevStatus: contracts.StatusPending,
			OccurredAt: s.now(),
		}
		if pubErr := s.fallback.PublishStatusChanged(ctx, rejected); pubErr != nil {
			s.log.Error("fallback publish failed", "order_id", event.OrderID, "err", pubErr)
		}
		return nil
	}

	if res.OK {
		s.log.Info("order confirmed, stock reserved", "order_id", event.OrderID)
	} else {
		s.log.Info("order rejected", "order_id", event.OrderID, "reason", res.Message)
	}
	return nil
}

func (s *Service) AddProduct(ctx context.Context, name string, price, quantity int) (domain.Product, error) {
	p := domain.Product{
		Name:       name,
		Price:      price,
		NumInStock: quantity,
		Mkt:        uuid.NewString(),
	}
	created, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.log.Info("product created", "product_id", created.ID, "mkt", created.Mkt)
	return created, nil
}

func (s *Service) GetProduct(ctx context.Context, id int) (domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) RetrieveAllProducts(ctx context.Context, nameFilter string) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, nameFilter)
}

func (s *Service) UpdateProduct(ctx context.Context, mkt string, upd domain.ProductUpdate) (domain.Product, error) {
	updated, err := s.repo.UpdateProductByMkt(ctx, mkt, upd)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product updated", "product_id", updated.ID, "mkt", mkt)
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, mkt string) error {
	if err := s.repo.DeleteProductByMkt(ctx, mkt); err != nil {
		return err
	}
	s.log.Info("product deleted", "mkt", mkt)
	return nil
}
