package application

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dmehra2102/order-submission-service/internal/order/domain"
	"github.com/dmehra2102/order-submission-service/internal/stock"
)

type StockReport struct {
	OrderID     string             `json:"orderId"`
	Customer    string             `json:"customer"`
	Items       []domain.OrderItem `json:"items"`
	StockReport string             `json:"stockReport"`
}

// GetOrderWithStock checks stock for every item of the order. Lookups run
// concurrently; the report keeps the items' order and marks failed lookups
// per line. Without a configured stock service every line is marked failed.
func (s *Service) GetOrderWithStock(ctx context.Context, orderID string) (StockReport, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return StockReport{}, err
	}

	lines := make([]string, len(o.Items))
	var g errgroup.Group
	g.SetLimit(max(len(o.Items), 1))
	for i, item := range o.Items {
		g.Go(func() error {
			var r stock.Result
			if s.stock != nil {
				r = s.stock.Check(ctx, item.SKU)
			}
			lines[i] = reportLine(item.SKU, r)
			return nil
		})
	}
	// Lookups report failures in their line, never as an error.
	g.Wait()

	return StockReport{
		OrderID:     o.ID,
		Customer:    o.Customer,
		Items:       o.Items,
		StockReport: strings.Join(lines, "; "),
	}, nil
}

func reportLine(sku string, r stock.Result) string {
	if !r.OK() {
		return fmt.Sprintf("Item %s: failed to check stock", sku)
	}
	return fmt.Sprintf("Item %s: availableQty=%d", sku, *r.AvailableQty)
}
