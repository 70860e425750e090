package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/order-submission-service/internal/analytics/domain"
)

const Schema = `
CREATE TABLE IF NOT EXISTS order_event_log (
	id           UUID PRIMARY KEY,
	order_id     TEXT NOT NULL,
	total        NUMERIC NOT NULL,
	item_count   INTEGER,
	customer     TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL,
	received_at  TIMESTAMPTZ NOT NULL,
	source       TEXT NOT NULL
);
`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

func (r *Repository) Append(ctx context.Context, e domain.Entry) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO order_event_log (id, order_id, total, item_count, customer, submitted_at, received_at, source)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.OrderID, e.Total, e.ItemCount, e.Customer, e.SubmittedAt, e.ReceivedAt, string(e.Source))
	return err
}
