package filters

import (
	"context"

	"haze-obliterator/internal/models"
	"haze-obliterator/internal/parallel"
)

// MinChannels is the Min3 reducer: each output cell is the smallest of the
// pixel's three channel values.
func MinChannels(ctx context.Context, img *models.Image, workers int) (*models.ScalarMap, error) {
	dst := models.NewScalarMap(img.Width, img.Height)
	err := parallel.Rows(ctx, img.Height, workers, func(start, end int) error {
		for y := start; y < end; y++ {
			row := img.Row(y)
			out := dst.Row(y)
			for x := range out {
				i := x * models.Channels
				out[x] = min(row[i], row[i+1], row[i+2])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}
