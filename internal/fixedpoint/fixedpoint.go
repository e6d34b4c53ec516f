// Package fixedpoint provides exact decimal-scaled integer arithmetic for
// prices and quantities. Values are stored as big.Int scaled to Precision
// decimals so that chained multiplications and divisions across trade legs
// never accumulate binary floating-point error.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Precision is the number of fractional decimal digits carried internally.
const Precision = 18

var (
	// ErrDivisionByZero is returned by Div when the divisor is zero.
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")

	scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(Precision), nil)
)

// Value is an immutable fixed-point number with Precision fractional digits.
// The zero Value is usable and equal to 0.
type Value struct {
	raw *big.Int
}

// Zero returns the zero value.
func Zero() Value {
	return Value{raw: big.NewInt(0)}
}

// One returns the value 1.0.
func One() Value {
	return Value{raw: new(big.Int).Set(scale)}
}

// FromInt64 creates a Value from a whole number.
func FromInt64(n int64) Value {
	return Value{raw: new(big.Int).Mul(big.NewInt(n), scale)}
}

// FromRaw creates a Value from an already-scaled integer.
func FromRaw(raw *big.Int) Value {
	if raw == nil {
		return Zero()
	}
	return Value{raw: new(big.Int).Set(raw)}
}

// FromDecimal creates a Value from a decimal, truncating digits beyond
// Precision.
func FromDecimal(d decimal.Decimal) Value {
	return Value{raw: d.Shift(Precision).Truncate(0).BigInt()}
}

// FromString parses a decimal string into a Value.
func FromString(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, fmt.Errorf("fixedpoint: parse %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// MustFromString parses a decimal string, panicking on malformed input.
// Intended for constants and test fixtures.
func MustFromString(s string) Value {
	v, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FromFloat creates a Value from a float64. Boundary use only; float inputs
// already carry binary rounding error.
func FromFloat(f float64) Value {
	return FromDecimal(decimal.NewFromFloat(f))
}

func (v Value) bigint() *big.Int {
	if v.raw == nil {
		return big.NewInt(0)
	}
	return v.raw
}

// Raw returns a copy of the scaled integer representation.
func (v Value) Raw() *big.Int {
	return new(big.Int).Set(v.bigint())
}

// Add returns v + o.
func (v Value) Add(o Value) Value {
	return Value{raw: new(big.Int).Add(v.bigint(), o.bigint())}
}

// Sub returns v − o. Results may be negative.
func (v Value) Sub(o Value) Value {
	return Value{raw: new(big.Int).Sub(v.bigint(), o.bigint())}
}

// Mul returns v × o, truncating toward zero at Precision digits.
func (v Value) Mul(o Value) Value {
	prod := new(big.Int).Mul(v.bigint(), o.bigint())
	return Value{raw: prod.Quo(prod, scale)}
}

// Div returns v ÷ o, truncating toward zero at Precision digits.
func (v Value) Div(o Value) (Value, error) {
	if o.IsZero() {
		return Value{}, ErrDivisionByZero
	}
	num := new(big.Int).Mul(v.bigint(), scale)
	return Value{raw: num.Quo(num, o.bigint())}, nil
}

// MustDiv divides, panicking on a zero divisor.
func (v Value) MustDiv(o Value) Value {
	r, err := v.Div(o)
	if err != nil {
		panic(err)
	}
	return r
}

// Neg returns −v.
func (v Value) Neg() Value {
	return Value{raw: new(big.Int).Neg(v.bigint())}
}

// Abs returns |v|.
func (v Value) Abs() Value {
	return Value{raw: new(big.Int).Abs(v.bigint())}
}

// Cmp returns -1, 0 or 1 comparing v against o.
func (v Value) Cmp(o Value) int {
	return v.bigint().Cmp(o.bigint())
}

// Sign returns -1, 0 or 1.
func (v Value) Sign() int {
	return v.bigint().Sign()
}

// IsZero reports whether v == 0.
func (v Value) IsZero() bool {
	return v.bigint().Sign() == 0
}

// IsPositive reports whether v > 0.
func (v Value) IsPositive() bool {
	return v.bigint().Sign() > 0
}

// IsNegative reports whether v < 0.
func (v Value) IsNegative() bool {
	return v.bigint().Sign() < 0
}

// GreaterThan reports v > o.
func (v Value) GreaterThan(o Value) bool {
	return v.Cmp(o) > 0
}

// GreaterThanOrEqual reports v >= o.
func (v Value) GreaterThanOrEqual(o Value) bool {
	return v.Cmp(o) >= 0
}

// LessThan reports v < o.
func (v Value) LessThan(o Value) bool {
	return v.Cmp(o) < 0
}

// Equal reports v == o.
func (v Value) Equal(o Value) bool {
	return v.Cmp(o) == 0
}

// Min returns the smaller of v and o.
func Min(v, o Value) Value {
	if v.Cmp(o) <= 0 {
		return v
	}
	return o
}

// Decimal converts to decimal.Decimal. Boundary function for display and
// config interchange, not for chained calculation.
func (v Value) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(v.bigint(), -Precision)
}

// Float64 converts to float64 for display and scoring heuristics only.
func (v Value) Float64() float64 {
	f, _ := v.Decimal().Float64()
	return f
}

// String renders the value in plain decimal notation.
func (v Value) String() string {
	return v.Decimal().String()
}

// StringFixed renders the value with a fixed number of fractional digits.
func (v Value) StringFixed(places int32) string {
	return v.Decimal().StringFixed(places)
}
