package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/orders/application"
	"github.com/asyncorders/asyncorders/internal/orders/domain"
	"github.com/asyncorders/asyncorders/pkg/outbox"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id          SERIAL PRIMARY KEY,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			status      TEXT NOT NULL,
			total_price INT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS order_items (
			id           SERIAL PRIMARY KEY,
			order_id     INT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id   INT NOT NULL,
			product_name TEXT NOT NULL,
			price        INT NOT NULL,
			quantity     INT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create orders tables: %w", err)
	}
	return nil
}

// CreateWithOutbox writes the order, its lines and the order-created outbox
// row in one transaction. The event is built after the insert so it carries
// the store-assigned order id.
func (r *Repository) CreateWithOutbox(ctx context.Context, o domain.Order, traceparent string) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (status, total_price)
		VALUES ($1,$2)
		RETURNING id, created_at`,
		o.Status, o.TotalPrice).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, line := range o.Lines {
		batch.Queue(`
			INSERT INTO order_items (order_id, product_id, product_name, price, quantity)
			VALUES ($1,$2,$3,$4,$5)`,
			o.ID, line.ProductID, line.ProductName, line.Price, line.Quantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.Order{}, fmt.Errorf("insert order items: %w", err)
	}

	payload, err := json.Marshal(o.CreatedEvent())
	if err != nil {
		return domain.Order{}, fmt.Errorf("marshal order-created event: %w", err)
	}
	if err := outbox.InsertTx(ctx, tx, "order", strconv.Itoa(o.ID), "OrderCreated", payload, traceparent); err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, fmt.Errorf("commit order: %w", err)
	}
	return o, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, created_at, status, total_price FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.CreatedAt, &o.Status, &o.TotalPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, application.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT product_id, product_name, price, quantity
		FROM order_items WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.Price, &line.Quantity); err != nil {
			return domain.Order{}, fmt.Errorf("scan order item: %w", err)
		}
		o.Lines = append(o.Lines, line)
	}
	return o, rows.Err()
}

func (r *Repository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.created_at, o.status, o.total_price,
		       i.product_id, i.product_name, i.price, i.quantity
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		ORDER BY o.id, i.id`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	index := make(map[int]int)
	for rows.Next() {
		var o domain.Order
		var line domain.OrderLine
		if err := rows.Scan(&o.ID, &o.CreatedAt, &o.Status, &o.TotalPrice,
			&line.ProductID, &line.ProductName, &line.Price, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		pos, seen := index[o.ID]
		if !seen {
			orders = append(orders, o)
			pos = len(orders) - 1
			index[o.ID] = pos
		}
		orders[pos].Lines = append(orders[pos].Lines, line)
	}
	return orders, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, id int, status contracts.OrderStatus) error {
	ct, err := r.pool.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return application.ErrOrderNotFound
	}
	return nil
}

// Catalog reads the products table maintained by products-service; both
// services share one relational store, so order pricing is a plain read.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) ProductsByIDs(ctx context.Context, ids []int) (map[int]domain.Product, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, name, price FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("select catalog products: %w", err)
	}
	defer rows.Close()

	products := make(map[int]domain.Product)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("scan catalog product: %w", err)
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}
