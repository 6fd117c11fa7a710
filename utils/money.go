// utils/money.go
package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a stored money string to a decimal. Empty strings
// parse to zero so documents created before a field existed still load.
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %q", s)
	}

	return value, nil
}

// FormatAmount renders a money value as its canonical two-decimal string,
// the form all monetary fields are persisted in.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// AmountFromFloat converts a JSON number into a money decimal, rounding to
// currency precision before any arithmetic happens on it.
func AmountFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}
