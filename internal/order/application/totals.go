package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/order-submission-service/internal/order/domain"
)

type TotalOutcome int

const (
	TotalOK TotalOutcome = iota
	TotalNotFound
	TotalNoItems
)

func (o TotalOutcome) String() string {
	switch o {
	case TotalOK:
		return "ok"
	case TotalNotFound:
		return "not_found"
	case TotalNoItems:
		return "no_items"
	}
	return "unknown"
}

type TotalResult struct {
	Outcome   TotalOutcome
	Order     domain.Order
	Total     decimal.Decimal
	ItemCount int
}

// TotalsEngine recomputes an order's total from its items and writes it back
// in the same transaction as the reads.
type TotalsEngine struct {
	repo OrderRepository
}

func NewTotalsEngine(repo OrderRepository) *TotalsEngine {
	return &TotalsEngine{repo: repo}
}

// ComputeAndPersist returns a non-nil error only for store failures, in which
// case the transaction has been rolled back.
func (e *TotalsEngine) ComputeAndPersist(ctx context.Context, orderID string) (TotalResult, error) {
	var res TotalResult
	err := e.repo.InTx(ctx, func(ctx context.Context, tx OrderTx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if errors.Is(err, domain.ErrNotFound) {
			res = TotalResult{Outcome: TotalNotFound}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}

		items, err := tx.ListItems(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		o.Items = items
		if len(items) == 0 {
			res = TotalResult{Outcome: TotalNoItems, Order: o}
			return nil
		}

		total := domain.SumItems(items)
		if err := tx.UpdateTotal(ctx, orderID, total); err != nil {
			return fmt.Errorf("update total: %w", err)
		}
		o.Total = decimal.NewNullDecimal(total)
		res = TotalResult{Outcome: TotalOK, Order: o, Total: total, ItemCount: len(items)}
		return nil
	})
	if err != nil {
		return TotalResult{}, err
	}
	return res, nil
}
