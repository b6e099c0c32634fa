package models

import (
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// LineItem is a priced line on a quote or an invoice.
type LineItem struct {
	Description string  `bson:"description" json:"description"`
	Quantity    float64 `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unitPrice" json:"unitPrice"`
	Total       float64 `bson:"total" json:"total"`
}

func (li LineItem) Validate() error {
	return validation.ValidateStruct(&li,
		validation.Field(&li.Description, validation.Required),
		validation.Field(&li.Quantity, validation.Min(0.0)),
		validation.Field(&li.UnitPrice, validation.Min(0.0)),
	)
}

// Totals holds the computed amounts of a priced document.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// ComputeTotals fills each item's Total and returns subtotal, tax and total for taxRate
// (a percentage). Amounts are rounded to cents.
func ComputeTotals(items []LineItem, taxRate float64) Totals {
	var sub float64
	for i := range items {
		qty := items[i].Quantity
		if qty <= 0 {
			qty = 1
			items[i].Quantity = 1
		}
		items[i].Total = roundCents(qty * items[i].UnitPrice)
		sub += items[i].Total
	}
	if taxRate < 0 {
		taxRate = 0
	}
	sub = roundCents(sub)
	tax := roundCents(sub * taxRate / 100)
	return Totals{Subtotal: sub, TaxAmount: tax, Total: roundCents(sub + tax)}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
