// Package numeric provides the division abstraction shared by every stage
// that divides: a plain floating-point backend and a fixed-point backend that
// models the hardware reciprocal lookup table.
package numeric

import (
	"fmt"
	"math"
)

const (
	BackendFloat = "float"
	BackendFixed = "fixed"
)

// Backend turns divisions into multiplications by a reciprocal. Divisors
// handed to a Backend are always positive.
type Backend interface {
	Name() string
	Reciprocal(x float64) float64
	Div(a, b float64) float64
}

// New builds the backend selected by name. bits and span only apply to the
// fixed-point backend.
func New(name string, bits int, span float64) (Backend, error) {
	switch name {
	case BackendFloat, "":
		return Float{}, nil
	case BackendFixed:
		return NewFixed(bits, span)
	default:
		return nil, fmt.Errorf("unknown numeric backend %q", name)
	}
}

// Float divides directly.
type Float struct{}

func (Float) Name() string { return BackendFloat }

func (Float) Reciprocal(x float64) float64 { return 1 / x }

func (Float) Div(a, b float64) float64 { return a / b }

// fracBits is the fractional width of the table entries (Q1.16).
const fracBits = 16

// minDivisor is the smallest divisor the exponent path resolves; anything
// below it, zero and NaN included, is treated as minDivisor.
var minDivisor = math.Ldexp(1, -32)

// Fixed models a hardware reciprocal unit. A leading-one detect splits the
// divisor into a mantissa in [1,2) and a power-of-two exponent; the mantissa
// addresses a table of 2^bits reciprocals and the exponent shifts the result
// back. Relative error is at most about 2^-(bits+1) across
// [minDivisor, span]. Divisors above span saturate at 1/span.
type Fixed struct {
	span  float64
	table []uint32
}

// NewFixed precomputes the mantissa reciprocal table.
func NewFixed(bits int, span float64) (*Fixed, error) {
	if bits < 4 || bits > 24 {
		return nil, fmt.Errorf("lut bits must be in [4, 24], got %d", bits)
	}
	if !(span > minDivisor) || math.IsInf(span, 0) {
		return nil, fmt.Errorf("lut range must be positive and finite, got %v", span)
	}

	n := 1 << bits
	table := make([]uint32, n)
	for i := range table {
		m := 1 + float64(i)/float64(n)
		table[i] = uint32(math.Round((1 << fracBits) / m))
	}
	return &Fixed{span: span, table: table}, nil
}

func (f *Fixed) Name() string { return BackendFixed }

// normalize returns the table index of x's mantissa and its exponent, so
// that x ≈ (1 + index/N) · 2^exp.
func (f *Fixed) normalize(x float64) (index, exp int) {
	if !(x >= minDivisor) {
		x = minDivisor
	}
	x = min(x, f.span)

	frac, e := math.Frexp(x)
	n := len(f.table)
	index = int(math.Round((2*frac - 1) * float64(n)))
	exp = e - 1
	if index == n {
		index, exp = 0, exp+1
	}
	return index, exp
}

func (f *Fixed) Reciprocal(x float64) float64 {
	index, exp := f.normalize(x)
	return math.Ldexp(float64(f.table[index])/(1<<fracBits), -exp)
}

func (f *Fixed) Div(a, b float64) float64 {
	return a * f.Reciprocal(b)
}
