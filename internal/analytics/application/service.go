package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/order-submission-service/internal/analytics/domain"
	orderdom "github.com/dmehra2102/order-submission-service/internal/order/domain"
)

type EventLog interface {
	Append(ctx context.Context, e domain.Entry) error
}

// Service records submitted orders in the event log. It is the in-process
// sink of the order publisher and the handler behind the broker consumer.
type Service struct {
	log  *slog.Logger
	repo EventLog
	now  func() time.Time
}

func NewService(log *slog.Logger, repo EventLog) *Service {
	return &Service{log: log, repo: repo, now: time.Now}
}

func (s *Service) OrderSubmitted(ctx context.Context, ev orderdom.OrderSubmitted) error {
	s.log.InfoContext(ctx, "received OrderSubmitted", "order_id", ev.OrderID, "source", domain.SourceInProcess)
	count := ev.ItemCount
	return s.append(ctx, domain.Entry{
		OrderID:     ev.OrderID,
		Total:       ev.Total,
		ItemCount:   &count,
		Customer:    ev.CustomerID,
		SubmittedAt: ev.SubmittedAt,
		Source:      domain.SourceInProcess,
	})
}

func (s *Service) OrderCompleted(ctx context.Context, ev orderdom.OrderCompleted) error {
	s.log.InfoContext(ctx, "received OrderSubmitted", "order_id", ev.OrderID, "source", domain.SourceBroker)
	return s.append(ctx, domain.Entry{
		OrderID:     ev.OrderID,
		Total:       ev.Total,
		Customer:    ev.CustomerID,
		SubmittedAt: ev.CompletedAt,
		Source:      domain.SourceBroker,
	})
}

func (s *Service) append(ctx context.Context, e domain.Entry) error {
	e.ID = uuid.NewString()
	e.ReceivedAt = s.now().UTC()
	if err := s.repo.Append(ctx, e); err != nil {
		return fmt.Errorf("log OrderSubmitted %s: %w", e.OrderID, err)
	}
	s.log.InfoContext(ctx, "logged OrderSubmitted", "order_id", e.OrderID, "entry_id", e.ID)
	return nil
}
