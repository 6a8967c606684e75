// Package oddsmath holds price conversions and money rounding shared by the
// arbitrage and hedge calculators.
package oddsmath

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/yourusername/arb-hedger/internal/models"
)

// AmericanToDecimal converts American odds to decimal odds.
// +150 -> 2.50, -150 -> 1.6667.
func AmericanToDecimal(american int) (float64, error) {
	switch {
	case american == 0:
		return 0, models.InvalidInputf("american odds cannot be 0")
	case american > 0:
		return float64(american)/100.0 + 1.0, nil
	default:
		return 100.0/float64(-american) + 1.0, nil
	}
}

// DecimalToAmerican converts decimal odds to the nearest American odds
func DecimalToAmerican(price float64) (int, error) {
	if price <= 1.0 {
		return 0, models.InvalidInputf("decimal odds must be > 1, got %v", price)
	}
	if price >= 2.0 {
		return int(math.Round((price - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (price - 1.0))), nil
}

// ImpliedProbability returns 1/price for a valid decimal price
func ImpliedProbability(price float64) (float64, error) {
	if price <= 1.0 {
		return 0, models.InvalidInputf("decimal odds must be > 1, got %v", price)
	}
	return 1.0 / price, nil
}

// TotalImplied sums 1/price over prices. Non-positive prices make the book
// unusable and yield +Inf.
func TotalImplied(prices []float64) float64 {
	total := 0.0
	for _, p := range prices {
		if p <= 0 {
			return math.Inf(1)
		}
		total += 1.0 / p
	}
	return total
}

// RoundCents rounds a currency amount half-away-from-zero to two places
func RoundCents(amount float64) float64 {
	f, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return f
}

// RoundTo rounds v to places decimal places
func RoundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Mul multiplies two amounts in decimal space and rounds to cents
func Mul(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}
