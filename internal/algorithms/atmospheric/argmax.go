// Package atmospheric estimates the global atmospheric light from the reduced
// image and its eroded dark map.
package atmospheric

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"haze-obliterator/internal/models"
	"haze-obliterator/internal/parallel"
)

const EstimatorArgmax = "argmax"

// DefaultFloor is the lowest value any light channel may take: 100 on the
// 8-bit scale.
const DefaultFloor = 100.0 / 255.0

// peak is the running state of the comparator chain: the best value seen so
// far and where it was seen.
type peak struct {
	index int
	value float64
	ok    bool
}

// offer replaces p only when v is strictly larger, so the earliest position
// wins ties. NaN never becomes the peak.
func (p *peak) offer(index int, v float64) {
	if math.IsNaN(v) {
		return
	}
	if !p.ok || v > p.value {
		*p = peak{index: index, value: v, ok: true}
	}
}

// Argmax returns the coordinates and value of the largest cell of m. Ties go
// to the first cell in row-major order.
//
// Rows are scanned in parallel bands; each band keeps one running maximum and
// the partial results are merged in band order with the same strict
// comparison, which reproduces a single sequential scan.
func Argmax(ctx context.Context, m *models.ScalarMap, workers int) (x, y int, value float64, err error) {
	if m.Shape().Empty() {
		return 0, 0, 0, errors.New("argmax of empty map")
	}

	bands := parallel.Bands(m.Height, parallel.Workers(workers))
	partial := make([]peak, len(bands))
	err = parallel.ForBands(ctx, bands, workers, func(i int, b parallel.Band) error {
		var p peak
		for row := b.Start; row < b.End; row++ {
			values := m.Row(row)
			col := floats.MaxIdx(values)
			if !math.IsNaN(values[col]) {
				p.offer(row*m.Width+col, values[col])
				continue
			}
			// MaxIdx keeps a leading NaN; rescan the row without it.
			for x, v := range values {
				p.offer(row*m.Width+x, v)
			}
		}
		partial[i] = p
		return nil
	})
	if err != nil {
		return 0, 0, 0, err
	}

	var best peak
	for _, p := range partial {
		if p.ok {
			best.offer(p.index, p.value)
		}
	}
	if !best.ok {
		return 0, 0, 0, errors.New("argmax of map holding only NaN")
	}
	return best.index % m.Width, best.index / m.Width, best.value, nil
}

// ArgmaxEstimator takes the reduced-image pixel under the single brightest
// dark-map cell as the light. It needs one comparison per pixel and O(1)
// state, at the price of following a lone outlier.
type ArgmaxEstimator struct {
	floor   float64
	workers int
}

func NewArgmaxEstimator(floor float64, workers int) *ArgmaxEstimator {
	return &ArgmaxEstimator{floor: floor, workers: workers}
}

func (e *ArgmaxEstimator) GetName() string {
	return EstimatorArgmax
}

func (e *ArgmaxEstimator) Estimate(ctx context.Context, reduced *models.Image, dark *models.ScalarMap) (models.LightEstimate, error) {
	if err := models.CheckShapes("atmospheric light", reduced.Shape(), dark.Shape()); err != nil {
		return models.LightEstimate{}, err
	}

	x, y, v, err := Argmax(ctx, dark, e.workers)
	if err != nil {
		return models.LightEstimate{}, fmt.Errorf("locate brightest dark cell: %w", err)
	}

	raw := models.AtmosphericLight(reduced.At(x, y))
	return models.LightEstimate{
		Light:   raw.Floored(e.floor),
		Raw:     raw,
		X:       x,
		Y:       y,
		Dark:    v,
		Samples: 1,
	}, nil
}
