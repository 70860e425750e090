package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an order header with its line items. Total is only valid once the
// order has been submitted at least once.
type Order struct {
	ID        string
	Customer  string
	Items     []OrderItem
	Total     decimal.NullDecimal
	CreatedAt time.Time
}

type OrderItem struct {
	SKU      string          `json:"sku"`
	Quantity int             `json:"qty"`
	Price    decimal.Decimal `json:"price"`
}

// LineTotal is qty × price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumItems adds up the line totals in exact decimal arithmetic.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func NewOrder(id, customer string, items []OrderItem) Order {
	return Order{
		ID:       id,
		Customer: customer,
		Items:    items,
	}
}
