package utils

import "github.com/shopspring/decimal"

// UnitPrice returns round(sum/quantity, 2), or 0 when quantity is not positive.
// All stages derive the per-unit price through this function.
func UnitPrice(sum, quantity float64) float64 {
	if quantity <= 0 || sum == 0 {
		return 0
	}
	return decimal.NewFromFloat(sum).
		Div(decimal.NewFromFloat(quantity)).
		Round(2).
		InexactFloat64()
}

func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Sum adds the values exactly and rounds the result to cents.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

// WithinTolerance reports whether |a-b| <= tolerance.
func WithinTolerance(a, b, tolerance float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(tolerance))
}

// FormatMoney renders v with two decimals.
func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
