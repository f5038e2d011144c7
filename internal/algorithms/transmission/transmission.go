// Package transmission derives the per-pixel transmission map from the
// normalized image through saturation, contrast stretching and a fixed
// mixing coefficient. Only multiplies, adds and table reciprocals are used.
package transmission

import (
	"context"
	"fmt"

	"haze-obliterator/internal/models"
	"haze-obliterator/internal/numeric"
	"haze-obliterator/internal/parallel"
)

// Params are the fixed constants of the transmission chain.
type Params struct {
	// Epsilon floors intensity and stretched saturation before they divide.
	Epsilon float64
	// Psi weights the intensity term.
	Psi float64
	// Min and Max bound the transmission.
	Min float64
	Max float64
}

func DefaultParams() Params {
	return Params{
		Epsilon: 1e-6,
		Psi:     1.25,
		Min:     0.1,
		Max:     1.0,
	}
}

// Saturation is 1 - minimum/intensity clamped to [0,1], evaluated as
// (intensity-minimum)/intensity so near-grey pixels keep their small
// saturation under the table backend. intensity must already be floored.
func Saturation(minimum, intensity float64, b numeric.Backend) float64 {
	return numeric.Clamp(b.Div(intensity-minimum, intensity), 0, 1)
}

// Stretch predicts the dehazed saturation s(2-s), floored at eps. The bool
// reports whether the floor fired.
func Stretch(s, eps float64) (float64, bool) {
	return numeric.Floor(s*(2-s), eps)
}

// Transmission is 1 - psi*k*(1 - s/sPrime) clamped to [p.Min, p.Max].
func Transmission(s, sPrime, k float64, p Params, b numeric.Backend) float64 {
	term := 1 - b.Div(s, sPrime)
	return numeric.Clamp(1-p.Psi*k*term, p.Min, p.Max)
}

// SaturationMaps are the outputs of the saturation stage.
type SaturationMaps struct {
	// Intensity is the floored channel mean K.
	Intensity *models.ScalarMap
	// Minimum is the per-pixel channel minimum.
	Minimum *models.ScalarMap
	// Saturation is S.
	Saturation *models.ScalarMap
}

type Estimator struct {
	params  Params
	backend numeric.Backend
	guard   *numeric.Guard
	workers int
}

func NewEstimator(params Params, backend numeric.Backend, guard *numeric.Guard, workers int) *Estimator {
	return &Estimator{
		params:  params,
		backend: backend,
		guard:   guard,
		workers: workers,
	}
}

// Saturation computes K, the channel minimum and S from the normalized image.
func (e *Estimator) Saturation(ctx context.Context, hn *models.Image) (*SaturationMaps, error) {
	w, h := hn.Width, hn.Height
	maps := &SaturationMaps{
		Intensity:  models.NewScalarMap(w, h),
		Minimum:    models.NewScalarMap(w, h),
		Saturation: models.NewScalarMap(w, h),
	}

	err := parallel.Rows(ctx, h, e.workers, func(start, end int) error {
		var clamped int64
		for y := start; y < end; y++ {
			row := hn.Row(y)
			kRow := maps.Intensity.Row(y)
			mRow := maps.Minimum.Row(y)
			sRow := maps.Saturation.Row(y)
			for x := 0; x < w; x++ {
				i := x * models.Channels
				r, g, b := row[i], row[i+1], row[i+2]

				k, hit := numeric.Floor((r+g+b)/3, e.params.Epsilon)
				if hit {
					clamped++
				}
				m := min(r, g, b)

				kRow[x] = k
				mRow[x] = m
				sRow[x] = Saturation(m, k, e.backend)
			}
		}
		e.guard.Add(clamped)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("saturation: %w", err)
	}
	return maps, nil
}

// Stretch maps S to the predicted dehazed saturation S'.
func (e *Estimator) Stretch(ctx context.Context, s *models.ScalarMap) (*models.ScalarMap, error) {
	dst := models.NewScalarMap(s.Width, s.Height)
	err := parallel.Rows(ctx, s.Height, e.workers, func(start, end int) error {
		var clamped int64
		for y := start; y < end; y++ {
			in, out := s.Row(y), dst.Row(y)
			for x, v := range in {
				sp, hit := Stretch(v, e.params.Epsilon)
				if hit {
					clamped++
				}
				out[x] = sp
			}
		}
		e.guard.Add(clamped)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("contrast stretch: %w", err)
	}
	return dst, nil
}

// Transmission combines S, S' and K into the clamped transmission map.
func (e *Estimator) Transmission(ctx context.Context, s, sPrime, k *models.ScalarMap) (*models.ScalarMap, error) {
	if err := models.CheckShapes("transmission", s.Shape(), sPrime.Shape()); err != nil {
		return nil, err
	}
	if err := models.CheckShapes("transmission", s.Shape(), k.Shape()); err != nil {
		return nil, err
	}

	dst := models.NewScalarMap(s.Width, s.Height)
	err := parallel.Rows(ctx, s.Height, e.workers, func(start, end int) error {
		for y := start; y < end; y++ {
			sRow, spRow, kRow, out := s.Row(y), sPrime.Row(y), k.Row(y), dst.Row(y)
			for x := range out {
				out[x] = Transmission(sRow[x], spRow[x], kRow[x], e.params, e.backend)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transmission: %w", err)
	}
	return dst, nil
}

// Estimate runs saturation, stretch and transmission in order.
func (e *Estimator) Estimate(ctx context.Context, hn *models.Image) (*models.ScalarMap, error) {
	maps, err := e.Saturation(ctx, hn)
	if err != nil {
		return nil, err
	}
	sPrime, err := e.Stretch(ctx, maps.Saturation)
	if err != nil {
		return nil, err
	}
	return e.Transmission(ctx, maps.Saturation, sPrime, maps.Intensity)
}
