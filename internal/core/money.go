// Package core provides amount parsing and validation.
//
// Amounts are plain decimals in rupiah. There is no minor unit, so a value such
// as "2500000" or "12500,5" is accepted as typed.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds on a single amount. Sums of amounts are not bounded.
const (
	MaxIntegerDigits  = 18
	MaxFractionDigits = 6
)

// ParseAmount converts user-entered text into a non-negative decimal.
//
// It accepts an optional "Rp" prefix and either dot (12.5) or comma (12,5) as
// the decimal separator. Signs, exponents, grouping separators and anything
// that is not a plain number are rejected with ErrInvalidAmount, as are values
// outside the digit bounds; the input is never coerced to zero.
//
// Examples:
//
//	ParseAmount("2500000")    -> 2500000, nil
//	ParseAmount("Rp 1500,50") -> 1500.5, nil
//	ParseAmount("abc")        -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "Rp"); ok {
		s = strings.TrimSpace(strings.TrimPrefix(rest, "."))
	}
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	if parts[0] == "" {
		parts[0] = "0"
	}
	for _, p := range parts {
		for _, r := range p {
			if r < '0' || r > '9' {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	if len(parts) == 2 && parts[1] == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(strings.Join(parts, "."))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount rejects negative amounts and amounts with more than
// MaxIntegerDigits integer or MaxFractionDigits fraction digits. Zero is a
// valid amount. The check reads the coefficient and exponent only, so a huge
// exponent is never expanded.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrInvalidAmount
	}
	if d.IsZero() {
		return nil
	}
	exp := int64(d.Exponent())
	if int64(d.NumDigits())+exp > MaxIntegerDigits {
		return fmt.Errorf("%w: more than %d integer digits", ErrInvalidAmount, MaxIntegerDigits)
	}
	if -exp > MaxFractionDigits {
		return fmt.Errorf("%w: more than %d fraction digits", ErrInvalidAmount, MaxFractionDigits)
	}
	return nil
}
