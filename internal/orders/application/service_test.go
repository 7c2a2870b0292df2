package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/orders/application"
	"github.com/asyncorders/asyncorders/internal/orders/domain"
	"github.com/asyncorders/asyncorders/pkg/logging"
)

type fakeRepo struct {
	orders map[int]domain.Order

	createdWith  *domain.Order
	statusWrites []contracts.OrderStatus
}

func newFakeRepo(orders ...domain.Order) *fakeRepo {
	f := &fakeRepo{orders: make(map[int]domain.Order)}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeRepo) CreateWithOutbox(_ context.Context, o domain.Order, _ string) (domain.Order, error) {
	o.ID = len(f.orders) + 1
	f.orders[o.ID] = o
	f.createdWith = &o
	return o, nil
}

func (f *fakeRepo) GetOrder(_ context.Context, id int) (domain.Order, error) {
	o, found := f.orders[id]
	if !found {
		return domain.Order{}, application.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeRepo) ListOrders(context.Context) ([]domain.Order, error) { return nil, nil }

func (f *fakeRepo) UpdateStatus(_ context.Context, id int, status contracts.OrderStatus) error {
	o := f.orders[id]
	o.Status = status
	f.orders[id] = o
	f.statusWrites = append(f.statusWrites, status)
	return nil
}

type fakeCatalog struct {
	products map[int]domain.Product
}

func (f *fakeCatalog) ProductsByIDs(_ context.Context, ids []int) (map[int]domain.Product, error) {
	out := make(map[int]domain.Product)
	for _, id := range ids {
		if p, found := f.products[id]; found {
			out[id] = p
		}
	}
	return out, nil
}

func TestCreateOrder_PricesLinesAndSnapshotsProducts(t *testing.T) {
	repo := newFakeRepo()
	catalog := &fakeCatalog{products: map[int]domain.Product{
		1: {ID: 1, Name: "keyboard", Price: 250},
		2: {ID: 2, Name: "mouse", Price: 80},
	}}
	svc := application.NewService(logging.New("test"), repo, catalog)

	order, err := svc.CreateOrder(context.Background(), []application.LineRequest{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 3},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, order.ID)
	assert.Equal(t, contracts.StatusPending, order.Status)
	assert.Equal(t, 2*250+3*80, order.TotalPrice)

	require.Len(t, order.Lines, 2)
	assert.Equal(t, "keyboard", order.Lines[0].ProductName)
	assert.Equal(t, 250, order.Lines[0].Price)
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	repo := newFakeRepo()
	catalog := &fakeCatalog{products: map[int]domain.Product{1: {ID: 1, Name: "keyboard", Price: 250}}}
	svc := application.NewService(logging.New("test"), repo, catalog)

	_, err := svc.CreateOrder(context.Background(), []application.LineRequest{
		{ProductID: 1, Quantity: 1},
		{ProductID: 44, Quantity: 1},
	})

	require.ErrorIs(t, err, application.ErrUnknownProduct)
	assert.Contains(t, err.Error(), "product with id 44 NOT found")
	assert.Nil(t, repo.createdWith, "no order may be persisted")
}

func TestApplyStatusChange_UpdatesPendingOrder(t *testing.T) {
	repo := newFakeRepo(domain.Order{ID: 7, Status: contracts.StatusPending})
	svc := application.NewService(logging.New("test"), repo, &fakeCatalog{})

	err := svc.ApplyStatusChange(context.Background(), contracts.OrderStatusChanged{
		OrderID: 7,
		Status:  contracts.StatusConfirmed,
	})

	require.NoError(t, err)
	assert.Equal(t, []contracts.OrderStatus{contracts.StatusConfirmed}, repo.statusWrites)
	assert.Equal(t, contracts.StatusConfirmed, repo.orders[7].Status)
}

func TestApplyStatusChange_DuplicateEventIsIdempotent(t *testing.T) {
	repo := newFakeRepo(domain.Order{ID: 7, Status: contracts.StatusPending})
	svc := application.NewService(logging.New("test"), repo, &fakeCatalog{})

	event := contracts.OrderStatusChanged{OrderID: 7, Status: contracts.StatusConfirmed}

	require.NoError(t, svc.ApplyStatusChange(context.Background(), event))
	require.NoError(t, svc.ApplyStatusChange(context.Background(), event))

	// the second delivery must not cause another write
	assert.Len(t, repo.statusWrites, 1)
	assert.Equal(t, contracts.StatusConfirmed, repo.orders[7].Status)
}

func TestApplyStatusChange_UnknownOrderIsDropped(t *testing.T) {
	repo := newFakeRepo()
	svc := application.NewService(logging.New("test"), repo, &fakeCatalog{})

	err := svc.ApplyStatusChange(context.Background(), contracts.OrderStatusChanged{
		OrderID: 999,
		Status:  contracts.StatusConfirmed,
	})

	require.NoError(t, err, "unknown order must not propagate a fault")
	assert.Empty(t, repo.statusWrites)
}

func TestApplyStatusChange_LateConflictingEventIsNoOp(t *testing.T) {
	repo := newFakeRepo(domain.Order{ID: 7, Status: contracts.StatusConfirmed})
	svc := application.NewService(logging.New("test"), repo, &fakeCatalog{})

	err := svc.ApplyStatusChange(context.Background(), contracts.OrderStatusChanged{
		OrderID: 7,
		Status:  contracts.StatusRejected,
	})

	require.NoError(t, err)
	assert.Empty(t, repo.statusWrites)
	assert.Equal(t, contracts.StatusConfirmed, repo.orders[7].Status)
}
