// Package memory is an in-process order store for local runs without
// Postgres. Transactions are serialized and applied only on success.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/order-submission-service/internal/order/application"
	"github.com/dmehra2102/order-submission-service/internal/order/domain"
)

type Repository struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

var _ application.OrderRepository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{orders: map[string]domain.Order{}}
}

func (r *Repository) Create(_ context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	o.Items = slices.Clone(o.Items)
	r.orders[o.ID] = o
	return nil
}

func (r *Repository) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	return o, nil
}

func (r *Repository) FindByMinTotal(_ context.Context, minTotal decimal.Decimal) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Order{}
	for _, o := range r.orders {
		if o.Total.Valid && o.Total.Decimal.GreaterThanOrEqual(minTotal) {
			o.Items = nil
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Decimal.Cmp(out[j].Total.Decimal); c != 0 {
			return c > 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, tx application.OrderTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := &tx{orders: maps.Clone(r.orders)}
	if err := fn(ctx, t); err != nil {
		return err
	}
	r.orders = t.orders
	return nil
}

type tx struct {
	orders map[string]domain.Order
}

func (t *tx) GetOrder(_ context.Context, id string) (domain.Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.Items = nil
	return o, nil
}

func (t *tx) ListItems(_ context.Context, orderID string) ([]domain.OrderItem, error) {
	return slices.Clone(t.orders[orderID].Items), nil
}

func (t *tx) UpdateTotal(_ context.Context, id string, total decimal.Decimal) error {
	o, ok := t.orders[id]
	if !ok {
		return fmt.Errorf("update total of %s: %w", id, domain.ErrNotFound)
	}
	o.Total = decimal.NewNullDecimal(total)
	t.orders[id] = o
	return nil
}
