// Package fee computes the payment surcharge for a cart subtotal.
package fee

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Calculator turns a subtotal in minor units into a surcharge amount.
type Calculator struct {
	rate decimal.Decimal
}

// NewCalculator builds a calculator for a rate in the open interval (0, 1).
func NewCalculator(rate decimal.Decimal) (*Calculator, error) {
	if !rate.IsPositive() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("fee rate must be between 0 and 1, got %s", rate)
	}
	return &Calculator{rate: rate}, nil
}

// Rate returns the configured rate.
func (c *Calculator) Rate() decimal.Decimal {
	return c.rate
}

// Calculate returns ceil(subtotal * rate). Non-positive subtotals yield 0.
func (c *Calculator) Calculate(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotal).Mul(c.rate).Ceil().IntPart()
}
