package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/order-submission-service/internal/order/domain"
	"github.com/dmehra2102/order-submission-service/internal/stock"
)

// OrderRepository is the transactional order store.
type OrderRepository interface {
	Create(ctx context.Context, o domain.Order) error
	Get(ctx context.Context, id string) (domain.Order, error)
	FindByMinTotal(ctx context.Context, minTotal decimal.Decimal) ([]domain.Order, error)
	// InTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx OrderTx) error) error
}

// OrderTx is the view of the store inside a transaction. GetOrder returns
// domain.ErrNotFound when no row matches.
type OrderTx interface {
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	UpdateTotal(ctx context.Context, id string, total decimal.Decimal) error
}

type StockChecker interface {
	Check(ctx context.Context, sku string) stock.Result
}

// LocalSink receives the in-process copy of a submission event.
type LocalSink interface {
	OrderSubmitted(ctx context.Context, ev domain.OrderSubmitted) error
}

// ExternalSink receives the broker copy of a submission event.
type ExternalSink interface {
	OrderCompleted(ctx context.Context, ev domain.OrderCompleted) error
}
