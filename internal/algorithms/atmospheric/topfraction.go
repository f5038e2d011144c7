package atmospheric

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"haze-obliterator/internal/models"
)

const EstimatorTopFraction = "top-fraction"

// TopFractionEstimator is the classical dark-channel-prior estimate: average
// the reduced-image pixels under the brightest fraction of dark-map cells.
// It sorts, so it has no streaming hardware counterpart; it exists for
// comparing against ArgmaxEstimator and is never the default.
type TopFractionEstimator struct {
	floor    float64
	fraction float64
}

func NewTopFractionEstimator(floor, fraction float64) *TopFractionEstimator {
	return &TopFractionEstimator{floor: floor, fraction: fraction}
}

func (e *TopFractionEstimator) GetName() string {
	return EstimatorTopFraction
}

func (e *TopFractionEstimator) Estimate(ctx context.Context, reduced *models.Image, dark *models.ScalarMap) (models.LightEstimate, error) {
	if err := models.CheckShapes("atmospheric light", reduced.Shape(), dark.Shape()); err != nil {
		return models.LightEstimate{}, err
	}
	if dark.Shape().Empty() {
		return models.LightEstimate{}, errors.New("top-fraction estimate of empty map")
	}
	if !(e.fraction > 0 && e.fraction <= 1) {
		return models.LightEstimate{}, fmt.Errorf("top fraction must be in (0, 1], got %v", e.fraction)
	}
	if err := ctx.Err(); err != nil {
		return models.LightEstimate{}, err
	}

	order := make([]int, len(dark.Data))
	for i := range order {
		order[i] = i
	}
	// Stable descending sort keeps row-major order among equal values, so
	// order[0] is the same cell the argmax scan picks.
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(dark.Data[b], dark.Data[a])
	})

	n := max(1, int(math.Ceil(e.fraction*float64(len(order)))))
	var sum models.AtmosphericLight
	for _, idx := range order[:n] {
		rgb := reduced.At(idx%dark.Width, idx/dark.Width)
		for c := range sum {
			sum[c] += rgb[c]
		}
	}
	var raw models.AtmosphericLight
	for c := range raw {
		raw[c] = sum[c] / float64(n)
	}

	first := order[0]
	return models.LightEstimate{
		Light:   raw.Floored(e.floor),
		Raw:     raw,
		X:       first % dark.Width,
		Y:       first / dark.Width,
		Dark:    dark.Data[first],
		Samples: n,
	}, nil
}
