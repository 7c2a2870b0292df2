package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/products/domain"
	"github.com/asyncorders/asyncorders/pkg/outbox"
)

var ErrNotFound = errors.New("product not found")

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id           SERIAL PRIMARY KEY,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			name         TEXT NOT NULL,
			price        INT NOT NULL,
			num_in_stock INT NOT NULL DEFAULT 0 CHECK (num_in_stock >= 0),
			mkt          TEXT NOT NULL UNIQUE
		)`)
	if err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	return nil
}

// ReserveWithOutbox performs the reservation for one order atomically: the
// referenced product rows are locked, the outcome is planned against that
// snapshot, every decrement (or none) is applied, and the terminal
// order-status-changed event is inserted into the outbox in the same
// transaction.
func (r *Repository) ReserveWithOutbox(ctx context.Context, event contracts.OrderCreated, traceparent string) (domain.Reservation, error) {
	var res domain.Reservation

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ids := make([]int, 0, len(event.Items))
	for _, item := range event.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := lockProducts(ctx, tx, ids)
	if err != nil {
		return res, err
	}

	res = domain.Reserve(event.OrderID, event.Items, products)

	if res.OK {
		for _, dec := range res.Decrements {
			ct, err := tx.Exec(ctx, `
				UPDATE products SET num_in_stock = num_in_stock - $2
				WHERE id = $1 AND num_in_stock >= $2`,
				dec.ProductID, dec.Quantity)
			if err != nil {
				return res, fmt.Errorf("decrement product %d: %w", dec.ProductID, err)
			}
			if ct.RowsAffected() == 0 {
				return res, fmt.Errorf("decrement product %d: stock changed underneath the lock", dec.ProductID)
			}
		}
	}

	statusEvent := res.StatusEvent(time.Now().UTC())
	payload, err := json.Marshal(statusEvent)
	if err != nil {
		return res, fmt.Errorf("marshal status event: %w", err)
	}
	if err := outbox.InsertTx(ctx, tx, "order", strconv.Itoa(event.OrderID), "OrderStatusChanged", payload, traceparent); err != nil {
		return res, err
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit reservation: %w", err)
	}
	return res, nil
}

func lockProducts(ctx context.Context, tx pgx.Tx, ids []int) (map[int]domain.Product, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, created_at, name, price, num_in_stock, mkt
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	products := make(map[int]domain.Product)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.Name, &p.Price, &p.NumInStock, &p.Mkt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, price, num_in_stock, mkt)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at`,
		p.Name, p.Price, p.NumInStock, p.Mkt).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int) (domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `
		SELECT id, created_at, name, price, num_in_stock, mkt
		FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.CreatedAt, &p.Name, &p.Price, &p.NumInStock, &p.Mkt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context, nameFilter string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, created_at, name, price, num_in_stock, mkt
		FROM products
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
		ORDER BY id`, nameFilter)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.Name, &p.Price, &p.NumInStock, &p.Mkt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) UpdateProductByMkt(ctx context.Context, mkt string, upd domain.ProductUpdate) (domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Product{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var p domain.Product
	err = tx.QueryRow(ctx, `
		SELECT id, created_at, name, price, num_in_stock, mkt
		FROM products WHERE mkt = $1
		FOR UPDATE`, mkt).
		Scan(&p.ID, &p.CreatedAt, &p.Name, &p.Price, &p.NumInStock, &p.Mkt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("select product by mkt: %w", err)
	}

	p = upd.ApplyTo(p)

	_, err = tx.Exec(ctx, `
		UPDATE products SET name=$2, price=$3, num_in_stock=$4 WHERE id=$1`,
		p.ID, p.Name, p.Price, p.NumInStock)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Product{}, fmt.Errorf("commit update: %w", err)
	}
	return p, nil
}

func (r *Repository) DeleteProductByMkt(ctx context.Context, mkt string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE mkt = $1`, mkt)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
