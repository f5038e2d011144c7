package transmission

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haze-obliterator/internal/models"
	"haze-obliterator/internal/numeric"
)

func newEstimator(t *testing.T, backend string) (*Estimator, *numeric.Guard) {
	t.Helper()
	b, err := numeric.New(backend, 12, 4)
	require.NoError(t, err)
	g := numeric.NewGuard(DefaultParams().Epsilon)
	return NewEstimator(DefaultParams(), b, g, 3), g
}

func TestPixelFormulas(t *testing.T) {
	b := numeric.Float{}
	p := DefaultParams()

	k := (0.2 + 0.4 + 0.6) / 3
	s := Saturation(0.2, k, b)
	assert.InDelta(t, 0.5, s, 1e-12)

	sp, hit := Stretch(s, p.Epsilon)
	assert.False(t, hit)
	assert.InDelta(t, 0.75, sp, 1e-12)

	assert.InDelta(t, 1-1.25*0.4/3, Transmission(s, sp, k, p, b), 1e-12)
}

func TestStretchFloorsAtEpsilon(t *testing.T) {
	sp, hit := Stretch(0, 1e-6)
	assert.True(t, hit)
	assert.Equal(t, 1e-6, sp)

	sp, hit = Stretch(1, 1e-6)
	assert.False(t, hit)
	assert.Equal(t, 1.0, sp)
}

func TestTransmissionClamps(t *testing.T) {
	p := DefaultParams()
	b := numeric.Float{}

	assert.Equal(t, 0.1, Transmission(0, 1e-6, 2.5, p, b))
	assert.Equal(t, 1.0, Transmission(1, 0.5, 1, p, b))
}

func TestBlackAndWhiteImages(t *testing.T) {
	black := models.NewUniformImage(5, 4, [3]float64{0, 0, 0})
	white := models.NewUniformImage(5, 4, [3]float64{1, 1, 1})

	for _, backend := range []string{numeric.BackendFloat, numeric.BackendFixed} {
		e, _ := newEstimator(t, backend)

		tmap, err := e.Estimate(context.Background(), black)
		require.NoError(t, err)
		for _, v := range tmap.Data {
			assert.InDelta(t, 1.0, v, 1e-9, backend)
		}

		tmap, err = e.Estimate(context.Background(), white)
		require.NoError(t, err)
		for _, v := range tmap.Data {
			assert.Equal(t, 0.1, v, backend)
		}
	}
}

func TestGuardCountsFlooredDivisors(t *testing.T) {
	e, g := newEstimator(t, numeric.BackendFloat)

	_, err := e.Estimate(context.Background(), models.NewUniformImage(5, 4, [3]float64{0, 0, 0}))
	require.NoError(t, err)
	assert.EqualValues(t, 20, g.Triggered(), "black image floors every intensity")

	_, err = e.Estimate(context.Background(), models.NewUniformImage(5, 4, [3]float64{1, 1, 1}))
	require.NoError(t, err)
	assert.EqualValues(t, 40, g.Triggered(), "white image floors every stretched saturation")
}

func TestRangesOnRandomNormalizedImages(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 2))
	hn := models.NewImage(31, 17)
	for i := range hn.Pix {
		// Normalized values reach 255/100 when the light sits on its floor.
		hn.Pix[i] = rng.Float64() * 2.55
	}

	for _, backend := range []string{numeric.BackendFloat, numeric.BackendFixed} {
		e, _ := newEstimator(t, backend)

		maps, err := e.Saturation(context.Background(), hn)
		require.NoError(t, err)
		sPrime, err := e.Stretch(context.Background(), maps.Saturation)
		require.NoError(t, err)
		tmap, err := e.Transmission(context.Background(), maps.Saturation, sPrime, maps.Intensity)
		require.NoError(t, err)

		for i := range tmap.Data {
			assert.GreaterOrEqual(t, maps.Saturation.Data[i], 0.0)
			assert.LessOrEqual(t, maps.Saturation.Data[i], 1.0)
			assert.GreaterOrEqual(t, sPrime.Data[i], 0.0)
			assert.LessOrEqual(t, sPrime.Data[i], 1.0)
			assert.GreaterOrEqual(t, tmap.Data[i], 0.1)
			assert.LessOrEqual(t, tmap.Data[i], 1.0)
			assert.GreaterOrEqual(t, maps.Intensity.Data[i], maps.Minimum.Data[i])
		}
	}
}

func TestFixedBackendTracksFloat(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 1))
	hn := models.NewImage(20, 20)
	for i := range hn.Pix {
		hn.Pix[i] = 0.2 + rng.Float64()*2
	}

	floatEst, _ := newEstimator(t, numeric.BackendFloat)
	fixedEst, _ := newEstimator(t, numeric.BackendFixed)

	want, err := floatEst.Estimate(context.Background(), hn)
	require.NoError(t, err)
	got, err := fixedEst.Estimate(context.Background(), hn)
	require.NoError(t, err)
	for i := range want.Data {
		assert.InDelta(t, want.Data[i], got.Data[i], 2e-3, "pixel %d", i)
	}
}

func TestFixedBackendOnNearGreyPixels(t *testing.T) {
	hn, err := models.ImageFromPixels(3, 1, []float64{
		0.5, 0.5001, 0.5,
		0.8, 0.8005, 0.8,
		0.6, 0.61, 0.6,
	})
	require.NoError(t, err)

	floatEst, _ := newEstimator(t, numeric.BackendFloat)
	fixedEst, _ := newEstimator(t, numeric.BackendFixed)

	want, err := floatEst.Estimate(context.Background(), hn)
	require.NoError(t, err)
	got, err := fixedEst.Estimate(context.Background(), hn)
	require.NoError(t, err)

	for i := range want.Data {
		assert.Greater(t, want.Data[i], 0.4, "pixel %d", i)
		assert.InDelta(t, want.Data[i], got.Data[i], 1e-3, "pixel %d", i)
	}
}

func TestTransmissionRejectsShapeMismatch(t *testing.T) {
	e, _ := newEstimator(t, numeric.BackendFloat)
	s := models.NewScalarMap(3, 3)
	_, err := e.Transmission(context.Background(), s, models.NewScalarMap(3, 3), models.NewScalarMap(2, 3))
	assert.True(t, errors.Is(err, models.ErrShapeMismatch))
}
