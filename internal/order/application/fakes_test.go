package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/order-submission-service/internal/order/domain"
	"github.com/dmehra2102/order-submission-service/internal/stock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func item(sku string, qty int, price string) domain.OrderItem {
	return domain.OrderItem{SKU: sku, Quantity: qty, Price: decimal.RequireFromString(price)}
}

// memRepo keeps orders in memory. InTx works on a copy that replaces the
// committed state only when fn succeeds.
type memRepo struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	writes    int
	failTx    error
	failItems error
}

func newMemRepo(orders ...domain.Order) *memRepo {
	r := &memRepo{orders: map[string]domain.Order{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *memRepo) Create(_ context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	r.orders[o.ID] = o
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (r *memRepo) FindByMinTotal(_ context.Context, minTotal decimal.Decimal) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, id := range slices.Sorted(maps.Keys(r.orders)) {
		o := r.orders[id]
		if o.Total.Valid && o.Total.Decimal.GreaterThanOrEqual(minTotal) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx OrderTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTx != nil {
		return r.failTx
	}
	tx := &memTx{repo: r, orders: maps.Clone(r.orders)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.orders = tx.orders
	r.writes += tx.writes
	return nil
}

func (r *memRepo) total(id string) decimal.NullDecimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Total
}

type memTx struct {
	repo   *memRepo
	orders map[string]domain.Order
	writes int
}

func (t *memTx) GetOrder(_ context.Context, id string) (domain.Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (t *memTx) ListItems(_ context.Context, orderID string) ([]domain.OrderItem, error) {
	if t.repo.failItems != nil {
		return nil, t.repo.failItems
	}
	return slices.Clone(t.orders[orderID].Items), nil
}

func (t *memTx) UpdateTotal(_ context.Context, id string, total decimal.Decimal) error {
	o := t.orders[id]
	o.Total = decimal.NewNullDecimal(total)
	t.orders[id] = o
	t.writes++
	return nil
}

type recordingLocal struct {
	mu     sync.Mutex
	events []domain.OrderSubmitted
	err    error
	panic  bool
}

func (s *recordingLocal) OrderSubmitted(_ context.Context, ev domain.OrderSubmitted) error {
	if s.panic {
		panic("local sink exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

type recordingExternal struct {
	mu     sync.Mutex
	events []domain.OrderCompleted
	err    error
}

func (s *recordingExternal) OrderCompleted(_ context.Context, ev domain.OrderCompleted) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

// fakeStock answers from a table after an optional per-SKU delay. SKUs in
// down come back with no availability.
type fakeStock struct {
	table map[string]int
	delay map[string]time.Duration
	down  map[string]bool
}

func (f *fakeStock) Check(ctx context.Context, sku string) stock.Result {
	if d := f.delay[sku]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return stock.Result{SKU: sku}
		}
	}
	if f.down[sku] {
		return stock.Result{SKU: sku}
	}
	qty := f.table[sku]
	return stock.Result{SKU: sku, AvailableQty: &qty}
}

var errDB = errors.New("connection reset")

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func nowFunc() time.Time { return fixedNow }
