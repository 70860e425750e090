package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/order-submission-service/internal/order/application"
	"github.com/dmehra2102/order-submission-service/internal/order/domain"
)

const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	id         TEXT PRIMARY KEY,
	customer   TEXT NOT NULL,
	total      NUMERIC,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS order_items (
	id       BIGSERIAL PRIMARY KEY,
	order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	sku      TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	price    NUMERIC NOT NULL CHECK (price >= 0)
);
CREATE INDEX IF NOT EXISTS order_items_order_id_idx ON order_items (order_id);
CREATE INDEX IF NOT EXISTS orders_total_idx ON orders (total);
`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

var _ application.OrderRepository = (*Repository)(nil)

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

func (r *Repository) Create(ctx context.Context, o domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO orders (id, customer, total, created_at) VALUES ($1,$2,$3,$4)`,
		o.ID, o.Customer, o.Total, o.CreatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, sku, quantity, price) VALUES ($1,$2,$3,$4)`,
			o.ID, item.SKU, item.Quantity, item.Price)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := getOrder(ctx, r.pool, id)
	if err != nil {
		return domain.Order{}, err
	}
	o.Items, err = listItems(ctx, r.pool, id)
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// FindByMinTotal returns orders whose total is at least minTotal. Orders that
// were never submitted have no total and never match.
func (r *Repository) FindByMinTotal(ctx context.Context, minTotal decimal.Decimal) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, customer, total, created_at FROM orders WHERE total >= $1 ORDER BY total DESC, id`, minTotal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.Customer, &o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, tx application.OrderTx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, orderTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type orderTx struct {
	tx pgx.Tx
}

// GetOrder locks the header row so concurrent submissions of one order
// serialize on the total update.
func (t orderTx) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := t.tx.QueryRow(ctx, `SELECT id, customer, total, created_at FROM orders WHERE id=$1 FOR UPDATE`, id).
		Scan(&o.ID, &o.Customer, &o.Total, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, err
}

func (t orderTx) ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	return listItems(ctx, t.tx, orderID)
}

func (t orderTx) UpdateTotal(ctx context.Context, id string, total decimal.Decimal) error {
	ct, err := t.tx.Exec(ctx, `UPDATE orders SET total=$2 WHERE id=$1`, id, total)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("update total of %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func getOrder(ctx context.Context, q querier, id string) (domain.Order, error) {
	var o domain.Order
	err := q.QueryRow(ctx, `SELECT id, customer, total, created_at FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.Customer, &o.Total, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, err
}

func listItems(ctx context.Context, q querier, orderID string) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `SELECT sku, quantity, price FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.SKU, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
