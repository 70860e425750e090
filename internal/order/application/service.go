package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/order-submission-service/internal/order/domain"
	"github.com/dmehra2102/order-submission-service/internal/stock"
)

// SubmitResult is what a caller of SubmitOrder sees. Not-found and no-items
// are reported here with Success false, not as errors.
type SubmitResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Total   *decimal.Decimal       `json:"total,omitempty"`
	State   domain.SubmissionState `json:"-"`
}

type Service struct {
	log    *slog.Logger
	repo   OrderRepository
	totals *TotalsEngine
	pub    *Publisher
	stock  StockChecker
	now    func() time.Time
}

type Deps struct {
	Repo      OrderRepository
	Publisher *Publisher
	// Stock may be nil when no stock service is configured.
	Stock StockChecker
	Now   func() time.Time
}

func NewService(log *slog.Logger, d Deps) *Service {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		log:    log,
		repo:   d.Repo,
		totals: NewTotalsEngine(d.Repo),
		pub:    d.Publisher,
		stock:  d.Stock,
		now:    now,
	}
}

// CreateOrder validates and stores a new order. The total is left unset until
// the first submission.
func (s *Service) CreateOrder(ctx context.Context, o domain.Order) (domain.Order, error) {
	if err := domain.ValidateForSubmission(&o, s.now()); err != nil {
		return domain.Order{}, err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Total = decimal.NullDecimal{}
	if err := s.repo.Create(ctx, o); err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	s.log.InfoContext(ctx, "order created", "order_id", o.ID, "items", len(o.Items))
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.Get(ctx, id)
}

// SubmitOrder finalizes the total of an order and notifies the event sinks.
// Once the total is committed the submission succeeds whatever the sinks do.
func (s *Service) SubmitOrder(ctx context.Context, orderID string) (SubmitResult, error) {
	res, err := s.totals.ComputeAndPersist(ctx, orderID)
	if err != nil {
		s.log.ErrorContext(ctx, "submit order failed", "order_id", orderID, "err", err)
		return SubmitResult{}, fmt.Errorf("submit order %s: %w", orderID, err)
	}

	switch res.Outcome {
	case TotalNotFound:
		return SubmitResult{Message: fmt.Sprintf("Order %s not found", orderID), State: domain.StateNotFound}, nil
	case TotalNoItems:
		return SubmitResult{Message: fmt.Sprintf("Order %s has no items", orderID), State: domain.StateNoItems}, nil
	}
	s.log.DebugContext(ctx, "submission progressed", "order_id", orderID, "state", domain.StateTotalPersisted)

	ev := domain.NewSubmissionEvent(res.Order, res.Total, res.ItemCount, s.now())
	out := s.pub.Publish(ctx, ev)
	s.log.InfoContext(ctx, "emitted OrderSubmitted",
		"order_id", orderID,
		"local_delivered", out.Local.Delivered(),
		"external_attempted", out.External.Attempted,
		"external_delivered", out.External.Delivered(),
	)

	total := res.Total
	return SubmitResult{
		Success: true,
		Message: fmt.Sprintf("Order %s submitted, total=%s", orderID, total.String()),
		Total:   &total,
		State:   domain.StateEventsPublished,
	}, nil
}

func (s *Service) GetHighValueOrders(ctx context.Context, minTotal decimal.Decimal) ([]domain.Order, error) {
	return s.repo.FindByMinTotal(ctx, minTotal)
}

// CheckStock looks up a single SKU. A stock service outage is reported in the
// result, not as an error.
func (s *Service) CheckStock(ctx context.Context, sku string) (stock.Result, error) {
	if s.stock == nil {
		return stock.Result{}, ErrStockNotConfigured
	}
	return s.stock.Check(ctx, sku), nil
}
