// services/commission.go
package services

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidLevel is returned when the rate function is called with a level
// below 1. Level resolution always defaults to 1, so hitting this error
// means a caller bypassed resolution.
var ErrInvalidLevel = errors.New("seller level must be >= 1")

// CommissionConfig holds the commission rate curve. The curve is linear
// between StartRate at level 1 and MinRate at MaxLevel, clamped outside
// that range. Injected once at startup so every call site shares one curve.
type CommissionConfig struct {
	StartRate decimal.Decimal
	MinRate   decimal.Decimal
	MaxLevel  int
}

// DefaultCommissionConfig returns the production curve: 11.32% for new
// sellers, tapering to 5.37% at level 25 and beyond.
func DefaultCommissionConfig() CommissionConfig {
	return CommissionConfig{
		StartRate: decimal.RequireFromString("0.1132"),
		MinRate:   decimal.RequireFromString("0.0537"),
		MaxLevel:  25,
	}
}

// Rate returns the commission fraction for a seller level. Strictly
// decreasing on [1, MaxLevel], constant at MinRate above MaxLevel.
func (c CommissionConfig) Rate(level int) (decimal.Decimal, error) {
	if level < 1 {
		return decimal.Zero, ErrInvalidLevel
	}
	if level <= 1 {
		return c.StartRate, nil
	}
	if level >= c.MaxLevel {
		return c.MinRate, nil
	}

	// Multiply before dividing so the interpolation stays exact for every
	// level on the curve.
	span := c.StartRate.Sub(c.MinRate)
	discount := span.Mul(decimal.NewFromInt(int64(level - 1))).
		Div(decimal.NewFromInt(int64(c.MaxLevel - 1)))
	rate := c.StartRate.Sub(discount)

	if rate.LessThan(c.MinRate) {
		return c.MinRate, nil
	}
	if rate.GreaterThan(c.StartRate) {
		return c.StartRate, nil
	}
	return rate, nil
}

// Split divides a payment between platform commission and seller payout.
// Commission is amount*rate rounded half-even to currency precision; the
// net amount is always derived by subtraction so the two sides add back
// to the original amount with no rounding leakage.
func (c CommissionConfig) Split(amount decimal.Decimal, level int) (commission, netSeller decimal.Decimal, err error) {
	rate, err := c.Rate(level)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	commission = amount.Mul(rate).RoundBank(2)
	netSeller = amount.Sub(commission)
	return commission, netSeller, nil
}

// RateEntry is one row of the published commission schedule.
type RateEntry struct {
	Level   int    `json:"level"`
	Rate    string `json:"rate"`
	Percent string `json:"percent"`
}

// RateTable lists the commission rate for each level in [from, to], for the
// seller-facing rate schedule endpoint.
func (c CommissionConfig) RateTable(from, to int) ([]RateEntry, error) {
	if from < 1 || to < from {
		return nil, ErrInvalidLevel
	}

	entries := make([]RateEntry, 0, to-from+1)
	for level := from; level <= to; level++ {
		rate, err := c.Rate(level)
		if err != nil {
			return nil, err
		}
		entries = append(entries, RateEntry{
			Level:   level,
			Rate:    rate.String(),
			Percent: rate.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%",
		})
	}
	return entries, nil
}
