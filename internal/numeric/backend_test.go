package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsBackend(t *testing.T) {
	b, err := New("", 12, 4)
	require.NoError(t, err)
	assert.Equal(t, BackendFloat, b.Name())

	b, err = New(BackendFixed, 12, 4)
	require.NoError(t, err)
	assert.Equal(t, BackendFixed, b.Name())

	_, err = New("cordic", 12, 4)
	assert.Error(t, err)
}

func TestNewFixedRejectsBadTables(t *testing.T) {
	_, err := NewFixed(2, 4)
	assert.Error(t, err)
	_, err = NewFixed(12, 0)
	assert.Error(t, err)
	_, err = NewFixed(12, math.Inf(1))
	assert.Error(t, err)
}

// Every divisor the pipeline can produce, from the epsilon floor up to the
// largest normalized intensity, resolves to the same relative precision.
func TestFixedMatchesFloatDownToEpsilon(t *testing.T) {
	fixed, err := NewFixed(12, 4)
	require.NoError(t, err)

	const bound = 2e-4
	for x := 1e-6; x <= 4; x *= 1.0137 {
		assert.InEpsilon(t, Float{}.Reciprocal(x), fixed.Reciprocal(x), bound, "1/%v", x)
		assert.InEpsilon(t, Float{}.Div(0.7, x), fixed.Div(0.7, x), bound, "0.7/%v", x)
	}
	for _, x := range []float64{1e-6, 2.5e-6, 1e-4, 1.999999, 2, 3.9999} {
		assert.InEpsilon(t, 1/x, fixed.Reciprocal(x), bound, "1/%v", x)
	}
}

func TestFixedResolvesNearlyEqualOperands(t *testing.T) {
	fixed, err := NewFixed(12, 4)
	require.NoError(t, err)

	// Small differences divided by their operands keep their magnitude.
	for _, pair := range [][2]float64{{0.5, 0.5001}, {0.8, 0.8005}, {0.6, 0.61}} {
		k := (pair[0]*2 + pair[1]) / 3
		want := (k - pair[0]) / k
		got := fixed.Div(k-pair[0], k)
		assert.InEpsilon(t, want, got, 2e-4, "%v", pair)
	}
}

func TestFixedSaturatesOutsideTable(t *testing.T) {
	fixed, err := NewFixed(8, 2)
	require.NoError(t, err)

	assert.Equal(t, 0.5, fixed.Reciprocal(10))
	assert.Equal(t, fixed.Reciprocal(0), fixed.Reciprocal(minDivisor))
	assert.Equal(t, fixed.Reciprocal(math.NaN()), fixed.Reciprocal(minDivisor))
	assert.InEpsilon(t, 1/minDivisor, fixed.Reciprocal(0), 1e-2)
}

func TestGuardCountsClamps(t *testing.T) {
	g := NewGuard(1e-6)

	assert.Equal(t, 0.5, g.Floor(0.5))
	assert.Equal(t, 1e-6, g.Floor(0))
	assert.Equal(t, 1e-6, g.Floor(1e-6))
	assert.Equal(t, 1e-6, g.Floor(math.NaN()))
	g.Add(3)

	assert.EqualValues(t, 6, g.Triggered())
}
