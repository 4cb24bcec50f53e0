package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput indicates a malformed line item reached the engine. The cart
// store never produces such state, so callers should treat this as an
// invariant breach rather than a user error.
var ErrInvalidInput = errors.New("invalid pricing input")

// Item describes a line item used for totals calculation.
type Item struct {
	Quantity  int
	UnitPrice float64
}

// Summary aggregates computed pricing components. Values keep full float64
// precision; apply Round2 only when presenting them.
type Summary struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// Compute derives subtotal, tax and total for the given items. taxBps is the
// tax rate in basis points (500 = 5%). Pure and deterministic.
func Compute(items []Item, taxBps int) (Summary, error) {
	if taxBps < 0 {
		return Summary{}, fmt.Errorf("tax rate %d bps: %w", taxBps, ErrInvalidInput)
	}
	var subtotal float64
	for i, it := range items {
		if it.Quantity <= 0 {
			return Summary{}, fmt.Errorf("item %d: quantity %d: %w", i, it.Quantity, ErrInvalidInput)
		}
		if it.UnitPrice < 0 {
			return Summary{}, fmt.Errorf("item %d: unit price %v: %w", i, it.UnitPrice, ErrInvalidInput)
		}
		subtotal += float64(it.Quantity) * it.UnitPrice
	}
	tax := subtotal * float64(taxBps) / 10000
	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}, nil
}

// Round2 rounds a monetary value to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
