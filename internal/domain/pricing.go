package domain

import "math"

// TaxRate is applied to every cart. The same rate must be used everywhere an
// amount is computed, otherwise the authorized charge and the fulfilled order
// amounts drift apart.
const TaxRate = 0.07

type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	Tax        float64 `json:"tax"`
	Total      float64 `json:"total"`
	ItemsCount int     `json:"items_count"`
}

// CalculateTotals derives cart amounts from the item list. Results are never
// cached; callers recompute on every read.
func CalculateTotals(items []CartItem) Totals {
	var subtotal float64
	var count int
	for _, item := range items {
		subtotal += item.UnitPrice * float64(item.Quantity)
		count += item.Quantity
	}

	tax := Round2(subtotal * TaxRate)
	return Totals{
		Subtotal:   Round2(subtotal),
		Tax:        tax,
		Total:      Round2(subtotal) + tax,
		ItemsCount: count,
	}
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MinorUnits converts a dollar amount to cents for the payment processor.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
