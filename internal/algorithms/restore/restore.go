// Package restore holds the two stages that apply the atmospheric light to
// the full-resolution image: normalization before transmission estimation and
// inversion of the haze model after it.
package restore

import (
	"context"
	"fmt"

	"haze-obliterator/internal/models"
	"haze-obliterator/internal/numeric"
	"haze-obliterator/internal/parallel"
)

// Normalizer divides every channel by its light component, as a multiply by
// one precomputed reciprocal per channel.
type Normalizer struct {
	backend numeric.Backend
	guard   *numeric.Guard
	workers int
}

func NewNormalizer(backend numeric.Backend, guard *numeric.Guard, workers int) *Normalizer {
	return &Normalizer{backend: backend, guard: guard, workers: workers}
}

// Reciprocals returns 1/A per channel through the backend, flooring each
// component at the guard's epsilon first.
func (n *Normalizer) Reciprocals(a models.AtmosphericLight) [3]float64 {
	var r [3]float64
	for c := range r {
		r[c] = n.backend.Reciprocal(n.guard.Floor(a[c]))
	}
	return r
}

func (n *Normalizer) Normalize(ctx context.Context, h *models.Image, a models.AtmosphericLight) (*models.Image, error) {
	r := n.Reciprocals(a)
	dst := models.NewImage(h.Width, h.Height)
	err := parallel.Rows(ctx, h.Height, n.workers, func(start, end int) error {
		for y := start; y < end; y++ {
			in, out := h.Row(y), dst.Row(y)
			for i := 0; i < len(in); i += models.Channels {
				out[i] = in[i] * r[0]
				out[i+1] = in[i+1] * r[1]
				out[i+2] = in[i+2] * r[2]
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return dst, nil
}

// Restorer inverts the haze model D = (H - A)/t + A per pixel. One
// transmission value serves all three channels of a pixel.
type Restorer struct {
	backend numeric.Backend
	guard   *numeric.Guard
	workers int
}

func NewRestorer(backend numeric.Backend, guard *numeric.Guard, workers int) *Restorer {
	return &Restorer{backend: backend, guard: guard, workers: workers}
}

// Pixel restores a single RGB triple and clamps it to [0,1]. t is floored
// at the guard's epsilon first; the bool reports whether the floor fired.
func (r *Restorer) Pixel(h [3]float64, a models.AtmosphericLight, t float64) ([3]float64, bool) {
	t, hit := numeric.Floor(t, r.guard.Epsilon)
	rt := r.backend.Reciprocal(t)
	var d [3]float64
	for c := range d {
		d[c] = numeric.Clamp((h[c]-a[c])*rt+a[c], 0, 1)
	}
	return d, hit
}

func (r *Restorer) Restore(ctx context.Context, h *models.Image, a models.AtmosphericLight, t *models.ScalarMap) (*models.Image, error) {
	if err := models.CheckShapes("restore", h.Shape(), t.Shape()); err != nil {
		return nil, err
	}

	dst := models.NewImage(h.Width, h.Height)
	err := parallel.Rows(ctx, h.Height, r.workers, func(start, end int) error {
		var clamped int64
		for y := start; y < end; y++ {
			in, tRow, out := h.Row(y), t.Row(y), dst.Row(y)
			for x, tv := range tRow {
				i := x * models.Channels
				d, hit := r.Pixel([3]float64{in[i], in[i+1], in[i+2]}, a, tv)
				if hit {
					clamped++
				}
				copy(out[i:i+models.Channels], d[:])
			}
		}
		r.guard.Add(clamped)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	return dst, nil
}
