package algorithms

import (
	"context"

	"haze-obliterator/internal/models"
)

// LightEstimator picks the atmospheric light from the reduced image and its
// eroded dark map. Both grids must share a shape.
type LightEstimator interface {
	Estimate(ctx context.Context, reduced *models.Image, dark *models.ScalarMap) (models.LightEstimate, error)
	GetName() string
}
