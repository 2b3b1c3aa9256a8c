package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal scales used across the system: exchange rates keep six fractional
// digits, user-facing amounts two. Rounding is half-up everywhere.
const (
	RateScale   = 6
	AmountScale = 2
)

// PivotCurrency is the common denominator all stored rates are expressed
// against. Converting between two non-pivot currencies always goes through
// it.
const PivotCurrency = Currency("RUB")

// Currency is an ISO 4217 alphabetic code.
type Currency string

// ParseCurrency normalizes and validates a raw currency code.
func ParseCurrency(s string) (Currency, error) {
	c := strings.ToUpper(strings.TrimSpace(s))
	if len(c) != 3 {
		return "", ErrBadData
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", ErrBadData
		}
	}
	return Currency(c), nil
}

// ParseAmount parses a positive decimal amount. Both dot and comma decimal
// separators are accepted, matching the formats seen in CSV exports.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrBadData
	}
	if d.Sign() <= 0 {
		return decimal.Zero, ErrBadData
	}
	return d, nil
}

// RoundAmount rounds half-up to the user-facing amount scale.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// RoundRate rounds half-up to the rate storage scale.
func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(RateScale)
}
