// Package core provides money parsing and handling utilities.
//
// This file contains the fixed-point Money type and the Rate type used for
// loan interest. Amounts are stored as integer minor units (cents) so that
// repeated summation never drifts; decimal parsing is delegated to
// shopspring/decimal.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units.
// Entry amounts are non-negative; derived quantities may be negative.
type Money struct {
	Cents int64
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney builds a Money from whole units and cents, e.g. NewMoney(12, 50) is 12.50.
func NewMoney(units, cents int64) Money {
	return Money{Cents: units*100 + cents}
}

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is
// allowed; negative values, non-finite input and amounts above MaxAmount are
// rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (half-up)
//	ParseDecimalToCents("-5")     -> 0, ErrNegativeAmount
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := parseDecimal(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return decimalToCents(d)
}

// ParseMoney is ParseDecimalToCents wrapped into a Money.
func ParseMoney(s string) (Money, error) {
	c, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: c}, nil
}

// MaxAmount is the largest amount accepted at entry: one trillion base units.
// Sums of up to ~92,000 maximal records stay within int64 cents.
var MaxAmount = NewMoney(1_000_000_000_000, 0)

// maxExponent bounds the decimal exponent accepted from input. Rescaling
// 1e999999999 would allocate a billion-digit integer.
const maxExponent = 20

var (
	maxCents           = decimal.NewFromInt(MaxAmount.Cents)
	errExponentOutside = fmt.Errorf("exponent outside [-%d, %d]", maxExponent, maxExponent)
)

// parseDecimal is decimal.NewFromString with the exponent bounded before any
// arithmetic touches the value.
func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if e := d.Exponent(); e > maxExponent || e < -maxExponent {
		return decimal.Zero, errExponentOutside
	}
	return d, nil
}

func decimalToCents(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	// half away from zero
	c := d.Shift(2).Round(0)
	if c.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: exceeds %s", ErrInvalidAmount, MaxAmount)
	}
	return c.IntPart(), nil
}

// Decimal returns the amount in base units as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two fraction digits, e.g. "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float returns the base-unit value for display and spreadsheet cells.
// Use Cents for arithmetic.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// Validate reports ErrNegativeAmount for amounts below zero and
// ErrInvalidAmount for amounts above MaxAmount.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	if m.Cents > MaxAmount.Cents {
		return fmt.Errorf("%w: exceeds %s", ErrInvalidAmount, MaxAmount)
	}
	return nil
}

// MarshalJSON encodes the amount as a JSON number in base units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Negative values
// decode successfully so that Validate can report them with field context.
func (m *Money) UnmarshalJSON(b []byte) error {
	d, err := decodeDecimal(b)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	neg := d.IsNegative()
	c, err := decimalToCents(d.Abs())
	if err != nil {
		return err
	}
	if neg {
		c = -c
	}
	m.Cents = c
	return nil
}

// Rate is a non-negative percentage per annum, e.g. 12.5 for 12.5%.
type Rate struct {
	decimal.Decimal
}

// ParseRate parses a percentage. Empty input is a zero rate.
func ParseRate(s string) (Rate, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Rate{}, nil
	}
	d, err := parseDecimal(s)
	if err != nil {
		return Rate{}, ErrInvalidRate
	}
	r := Rate{d}
	return r, r.Validate()
}

func (r Rate) Validate() error {
	if r.IsNegative() {
		return ErrInvalidRate
	}
	return nil
}

func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.Decimal.String()), nil
}

func (r *Rate) UnmarshalJSON(b []byte) error {
	d, err := decodeDecimal(b)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRate, err)
	}
	r.Decimal = d
	return nil
}

// decodeDecimal accepts a JSON number, a quoted number, or null (zero).
func decodeDecimal(b []byte) (decimal.Decimal, error) {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return decimal.Zero, nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return decimal.Zero, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, ErrInvalidAmount
		}
		return parseDecimal(s)
	}
	return parseDecimal(string(b))
}
