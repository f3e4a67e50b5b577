// Package types provides the monetary and quantity types shared by every document.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"gestcom/internal/core/apperror"
)

// CurrencyPlaces is the number of fractional digits TND is quoted with.
const CurrencyPlaces int32 = 3

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Rate is a fraction in [0,1] such as a VAT rate (0.19) or an exchange factor.
type Rate = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Hundred is the percentage divisor.
var Hundred = decimal.NewFromInt(100)

// Round rounds m half-away-from-zero to the currency precision.
// Apply only when presenting or exporting a value, never between computation steps.
func Round(m Money) Money {
	return m.Round(CurrencyPlaces)
}

// Fixed renders m with exactly three fractional digits ("1874.250").
func Fixed(m Money) string {
	return m.StringFixed(CurrencyPlaces)
}

// MinMoney returns the smaller of a and b.
func MinMoney(a, b Money) Money {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// InUnitInterval reports whether r lies in [0,1].
func InUnitInterval(r Rate) bool {
	return !r.IsNegative() && r.LessThanOrEqual(decimal.NewFromInt(1))
}

// Quantity is a fixed-point quantity with 4 decimal places (scale = 1e4).
// Stored as a scaled int64 so it maps onto NUMERIC(15,4) without floats.
type Quantity int64

const (
	QuantityPlaces int32 = 4
	QuantityScale  int64 = 10_000
)

var (
	maxScaledQuantity = decimal.NewFromInt(math.MaxInt64)
	minScaledQuantity = decimal.NewFromInt(math.MinInt64)
)

// NewQuantity builds a whole-unit quantity.
func NewQuantity(units int64) Quantity { return Quantity(units * QuantityScale) }

func (q Quantity) Int64Scaled() int64 { return int64(q) }

// Decimal converts the quantity to an exact decimal for money arithmetic.
func (q Quantity) Decimal() decimal.Decimal { return decimal.New(int64(q), -QuantityPlaces) }

func (q Quantity) IsPositive() bool { return q > 0 }

// String returns a decimal string with 4 fractional digits.
func (q Quantity) String() string {
	v := int64(q)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	whole, frac := v/QuantityScale, v%QuantityScale
	if whole < 0 {
		whole = -whole
	}
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%s%d.%04d", sign, whole, frac)
}

// MarshalJSON encodes Quantity as JSON number (not string), preserving 4 digits.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or string.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	raw := string(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	parsed, err := ParseQuantity(raw)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQuantity parses "12", "12.5", "-0.25" or "1.5e2" exactly. Inputs with
// more than 4 fractional digits or outside the int64 range are rejected.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	if s == "" {
		return 0, apperror.NewInvalidInput("quantity", "quantity is empty")
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, apperror.NewInvalidInput("quantity", "quantity is not a number").
			WithDetail("value", s).WithCause(err)
	}
	return QuantityFromDecimal(d)
}

// QuantityFromDecimal converts d without rounding.
func QuantityFromDecimal(d decimal.Decimal) (Quantity, error) {
	scaled := d.Shift(QuantityPlaces)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, apperror.NewInvalidInput("quantity", "quantity has more than 4 decimal places").
			WithDetail("value", d.String())
	}
	if scaled.GreaterThan(maxScaledQuantity) || scaled.LessThan(minScaledQuantity) {
		return 0, apperror.NewInvalidInput("quantity", "quantity is out of range").
			WithDetail("value", d.String())
	}
	return Quantity(scaled.IntPart()), nil
}
