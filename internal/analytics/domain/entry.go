package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceInProcess Source = "in_process"
	SourceBroker    Source = "broker"
)

// Entry is one row of the order event log. ItemCount is nil for entries that
// came through the broker, whose payload does not carry it.
type Entry struct {
	ID          string
	OrderID     string
	Total       decimal.Decimal
	ItemCount   *int
	Customer    string
	SubmittedAt time.Time
	ReceivedAt  time.Time
	Source      Source
}
