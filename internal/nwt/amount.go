package nwt

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of fractional digits kept for token amounts.
	Scale int32 = 6
	// PercentScale is the number of fractional digits kept for fee percentages.
	PercentScale int32 = 4
)

var (
	// ErrNonPositiveAmount is returned when an amount is zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be positive")
	// ErrInvalidPercentage is returned for fee percentages outside [0, 1].
	ErrInvalidPercentage = errors.New("fee percentage must be between 0 and 1")
)

// Round normalises a token amount to Scale fractional digits.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Positive rounds the amount and rejects zero or negative values.
func Positive(d decimal.Decimal) (decimal.Decimal, error) {
	r := Round(d)
	if !r.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	return r, nil
}

// Parse reads a token amount from its decimal string form.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Round(d), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Percentage validates and normalises a fee percentage expressed as a fraction.
func Percentage(d decimal.Decimal) (decimal.Decimal, error) {
	r := d.Round(PercentScale)
	if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, ErrInvalidPercentage
	}
	return r, nil
}
