package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderSubmitted = "OrderSubmitted"
)

// SubmissionEvent is built once per successful submission and never mutated.
type SubmissionEvent struct {
	OrderID     string
	Total       decimal.Decimal
	ItemCount   int
	CustomerID  string
	SubmittedAt time.Time
}

func NewSubmissionEvent(o Order, total decimal.Decimal, itemCount int, at time.Time) SubmissionEvent {
	return SubmissionEvent{
		OrderID:     o.ID,
		Total:       total,
		ItemCount:   itemCount,
		CustomerID:  o.Customer,
		SubmittedAt: at.UTC(),
	}
}

// OrderSubmitted is the payload delivered to the in-process analytics sink.
type OrderSubmitted struct {
	OrderID     string          `json:"orderId"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"itemCount"`
	CustomerID  string          `json:"customerId"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

// OrderCompleted is the payload written to the message broker. It carries
// fewer fields than OrderSubmitted.
type OrderCompleted struct {
	OrderID     string          `json:"orderId"`
	Total       decimal.Decimal `json:"total"`
	CustomerID  string          `json:"customerId"`
	CompletedAt time.Time       `json:"completedAt"`
}

func NewOrderSubmitted(ev SubmissionEvent) OrderSubmitted {
	return OrderSubmitted{
		OrderID:     ev.OrderID,
		Total:       ev.Total,
		ItemCount:   ev.ItemCount,
		CustomerID:  ev.CustomerID,
		SubmittedAt: ev.SubmittedAt,
	}
}

func NewOrderCompleted(ev SubmissionEvent) OrderCompleted {
	return OrderCompleted{
		OrderID:     ev.OrderID,
		Total:       ev.Total,
		CustomerID:  ev.CustomerID,
		CompletedAt: ev.SubmittedAt,
	}
}
