package pipeline

import (
	"context"

	"haze-obliterator/internal/logger"
	"haze-obliterator/internal/models"
)

// Logger is the component-tagged logger used across the pipeline.
type Logger = logger.Logger

// ImageLoader turns an encoded image into a normalized RGB grid. Failures are
// reported as *models.DecodeError.
type ImageLoader interface {
	LoadFile(path string) (*models.Image, error)
	LoadBytes(data []byte) (*models.Image, error)
	Name() string
}

// Resizer produces grids of exactly the requested size.
type Resizer interface {
	ResizeImage(ctx context.Context, img *models.Image, width, height int) (*models.Image, error)
	Name() string
}

// Eroder computes the window×window minimum of a scalar map with replicated
// borders.
type Eroder interface {
	Erode(ctx context.Context, m *models.ScalarMap, window int) (*models.ScalarMap, error)
	Name() string
}
