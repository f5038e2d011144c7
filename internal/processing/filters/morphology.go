package filters

import (
	"context"
	"fmt"

	"haze-obliterator/internal/models"
	"haze-obliterator/internal/parallel"
)

const (
	ErosionCascade = "cascade"
	ErosionDirect  = "direct"
)

// Radius converts an odd window size K into its radius k = (K-1)/2.
func Radius(window int) (int, error) {
	if window < 1 || window%2 == 0 {
		return 0, fmt.Errorf("window size must be a positive odd number, got %d", window)
	}
	return (window - 1) / 2, nil
}

// CascadeMinFilter erodes with a flat K×K square by running the 3×3 minimum
// filter k = (K-1)/2 times. A (2k+1) square is the Minkowski sum of k radius-1
// squares, so the result is exactly the K×K erosion.
//
// Every pass clamps out-of-range coordinates to the nearest edge of the grid
// it reads, the same way a line-buffer stage re-reads padded rows.
type CascadeMinFilter struct {
	workers int
}

func NewCascadeMinFilter(workers int) *CascadeMinFilter {
	return &CascadeMinFilter{workers: workers}
}

func (f *CascadeMinFilter) Name() string {
	return ErosionCascade
}

func (f *CascadeMinFilter) Erode(ctx context.Context, src *models.ScalarMap, window int) (*models.ScalarMap, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	radius, err := Radius(window)
	if err != nil {
		return nil, err
	}
	if radius == 0 || src.Shape().Empty() {
		return src.Clone(), nil
	}

	// Two scratch grids alternate as pass output; src itself is never written.
	bufs := [2]*models.ScalarMap{
		models.NewScalarMap(src.Width, src.Height),
		models.NewScalarMap(src.Width, src.Height),
	}
	bands := parallel.Bands(src.Height, parallel.Workers(f.workers))

	in := src
	for pass := 0; pass < radius; pass++ {
		out := bufs[pass%2]
		// The barrier at the end of each pass is the halo exchange: a band's
		// edge rows read the neighbouring bands' rows of the finished pass.
		err := parallel.ForBands(ctx, bands, f.workers, func(_ int, b parallel.Band) error {
			min3x3Rows(in, out, b.Start, b.End)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("erosion pass %d: %w", pass+1, err)
		}
		in = out
	}
	return in, nil
}

// min3x3Rows writes rows [start, end) of one radius-1 erosion of src into dst.
func min3x3Rows(src, dst *models.ScalarMap, start, end int) {
	w, h := src.Width, src.Height
	for y := start; y < end; y++ {
		up := src.Row(max(y-1, 0))
		mid := src.Row(y)
		down := src.Row(min(y+1, h-1))
		out := dst.Row(y)
		for x := 0; x < w; x++ {
			l, r := max(x-1, 0), min(x+1, w-1)
			out[x] = min(
				up[l], up[x], up[r],
				mid[l], mid[x], mid[r],
				down[l], down[x], down[r],
			)
		}
	}
}

// DirectMinFilter reduces the full K×K window at every pixel. It is the
// independent reference for CascadeMinFilter.
type DirectMinFilter struct {
	workers int
}

func NewDirectMinFilter(workers int) *DirectMinFilter {
	return &DirectMinFilter{workers: workers}
}

func (f *DirectMinFilter) Name() string {
	return ErosionDirect
}

func (f *DirectMinFilter) Erode(ctx context.Context, src *models.ScalarMap, window int) (*models.ScalarMap, error) {
	radius, err := Radius(window)
	if err != nil {
		return nil, err
	}

	dst := models.NewScalarMap(src.Width, src.Height)
	err = parallel.Rows(ctx, src.Height, f.workers, func(start, end int) error {
		for y := start; y < end; y++ {
			out := dst.Row(y)
			for x := range out {
				out[x] = WindowMinAt(src, x, y, radius)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// WindowMinAt returns the minimum over the (2r+1)² window centred on (cx, cy),
// clamping coordinates to the grid. This is the per-pixel check the hardware
// simulation harness runs against the streamed output.
func WindowMinAt(m *models.ScalarMap, cx, cy, r int) float64 {
	v := m.At(cx, cy)
	for dy := -r; dy <= r; dy++ {
		row := m.Row(min(max(cy+dy, 0), m.Height-1))
		for dx := -r; dx <= r; dx++ {
			v = min(v, row[min(max(cx+dx, 0), m.Width-1)])
		}
	}
	return v
}
