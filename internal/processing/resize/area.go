// Package resize resamples float grids by area averaging.
//
// golang.org/x/image/draw scales image.Image values through 16-bit colour,
// which would quantise the normalized float samples the pipeline carries, so
// the area kernel here works on the float buffers directly.
package resize

import (
	"context"
	"fmt"
	"math"

	"haze-obliterator/internal/models"
	"haze-obliterator/internal/parallel"
)

const ResizerArea = "area"

// DownsampledShape is floor(W/factor) × floor(H/factor).
func DownsampledShape(s models.Shape, factor int) models.Shape {
	return models.Shape{Width: s.Width / factor, Height: s.Height / factor}
}

// tap is one source sample and its share of an output sample.
type tap struct {
	index  int
	weight float64
}

// areaTaps returns, for each of dstN outputs, the source samples it covers
// weighted by overlap. Each output's weights sum to 1.
func areaTaps(srcN, dstN int) [][]tap {
	scale := float64(srcN) / float64(dstN)
	taps := make([][]tap, dstN)
	for o := 0; o < dstN; o++ {
		start := float64(o) * scale
		end := start + scale
		first := int(math.Floor(start))
		last := min(int(math.Ceil(end)), srcN)
		for i := first; i < last; i++ {
			overlap := math.Min(end, float64(i+1)) - math.Max(start, float64(i))
			if overlap <= 0 {
				continue
			}
			taps[o] = append(taps[o], tap{index: i, weight: overlap / scale})
		}
	}
	return taps
}

// Area averages every source sample that falls inside an output pixel's
// footprint, weighting partial overlaps. For integer factors this is a plain
// box average.
type Area struct {
	workers int
}

func NewArea(workers int) *Area {
	return &Area{workers: workers}
}

func (a *Area) Name() string {
	return ResizerArea
}

func validateTarget(src models.Shape, width, height int) error {
	if src.Empty() {
		return fmt.Errorf("cannot resize empty %s grid", src)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid target dimensions %dx%d", width, height)
	}
	return nil
}

func (a *Area) ResizeImage(ctx context.Context, img *models.Image, width, height int) (*models.Image, error) {
	if err := validateTarget(img.Shape(), width, height); err != nil {
		return nil, err
	}

	xTaps := areaTaps(img.Width, width)
	yTaps := areaTaps(img.Height, height)
	dst := models.NewImage(width, height)

	err := parallel.Rows(ctx, height, a.workers, func(start, end int) error {
		for oy := start; oy < end; oy++ {
			out := dst.Row(oy)
			for ox := 0; ox < width; ox++ {
				var acc [models.Channels]float64
				for _, ty := range yTaps[oy] {
					row := img.Row(ty.index)
					for _, tx := range xTaps[ox] {
						w := ty.weight * tx.weight
						i := tx.index * models.Channels
						acc[0] += w * row[i]
						acc[1] += w * row[i+1]
						acc[2] += w * row[i+2]
					}
				}
				copy(out[ox*models.Channels:], acc[:])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}
