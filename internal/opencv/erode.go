package opencv

import (
	"context"
	"image"

	"gocv.io/x/gocv"

	"haze-obliterator/internal/models"
	"haze-obliterator/internal/processing/filters"
)

// EroderName is the erosion key selecting this implementation.
const EroderName = "opencv"

// Eroder repeats a 3×3 rectangular erosion radius times. OpenCV's default
// erosion border behaves as replicate padding for a flat square element, so
// the result matches the cascade up to float32 rounding.
type Eroder struct{}

func NewEroder() *Eroder {
	return &Eroder{}
}

func (e *Eroder) Name() string {
	return EroderName
}

func (e *Eroder) Erode(ctx context.Context, m *models.ScalarMap, window int) (*models.ScalarMap, error) {
	radius, err := filters.Radius(window)
	if err != nil {
		return nil, err
	}
	if radius == 0 {
		return m.Clone(), nil
	}

	src, err := ScalarToMat(m)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: 3, Y: 3})
	defer kernel.Close()

	a := src.Clone()
	defer a.Close()
	b := gocv.NewMat()
	defer b.Close()

	for pass := 0; pass < radius; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		gocv.Erode(a, &b, kernel)
		a, b = b, a
	}
	return MatToScalar(a)
}
