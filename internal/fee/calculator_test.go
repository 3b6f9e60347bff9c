package fee

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateRoundsUp(t *testing.T) {
	calc, err := NewCalculator(decimal.RequireFromString("0.035"))
	require.NoError(t, err)

	cases := map[int64]int64{
		0:    0,
		-50:  0,
		1:    1,
		1000: 35,
		1001: 36,
		2000: 70,
		3000: 105,
		2858: 101,
	}
	for subtotal, want := range cases {
		assert.Equal(t, want, calc.Calculate(subtotal), "subtotal %d", subtotal)
	}
}

func TestCalculateAvoidsFloatDrift(t *testing.T) {
	calc, err := NewCalculator(decimal.RequireFromString("0.07"))
	require.NoError(t, err)
	// 100 * 0.07 is exactly 7; binary floating point yields 7.000000000000001.
	assert.Equal(t, int64(7), calc.Calculate(100))
}

func TestNewCalculatorRejectsOutOfRange(t *testing.T) {
	for _, raw := range []string{"0", "-0.1", "1", "1.5"} {
		_, err := NewCalculator(decimal.RequireFromString(raw))
		assert.Error(t, err, "rate %s", raw)
	}
	calc, err := NewCalculator(decimal.RequireFromString("0.035"))
	require.NoError(t, err)
	assert.Equal(t, "0.035", calc.Rate().String())
}
