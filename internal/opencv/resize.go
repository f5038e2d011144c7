package opencv

import (
	"context"
	"image"

	"gocv.io/x/gocv"

	"haze-obliterator/internal/models"
)

// ResizerName is the resizer key selecting this implementation.
const ResizerName = "opencv"

// Resizer uses INTER_AREA, which is exact box averaging for integer factors.
// Samples pass through float32.
type Resizer struct{}

func NewResizer() *Resizer {
	return &Resizer{}
}

func (r *Resizer) Name() string {
	return ResizerName
}

func (r *Resizer) ResizeImage(ctx context.Context, img *models.Image, width, height int) (*models.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateDimensions(width, height, "resize"); err != nil {
		return nil, err
	}
	src, err := ImageToMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationArea)
	return MatToImage(dst)
}
