package numeric

import (
	"sync/atomic"
)

// Floor clamps a prospective divisor to eps. The second result reports
// whether the clamp fired (x at or below eps, or NaN).
func Floor(x, eps float64) (float64, bool) {
	if x > eps {
		return x, false
	}
	return eps, true
}

// Guard counts divisor clamps across the goroutines of one run. Stages count
// locally per row band and add the total once.
type Guard struct {
	Epsilon   float64
	triggered atomic.Int64
}

func NewGuard(eps float64) *Guard {
	return &Guard{Epsilon: eps}
}

// Floor clamps x and records a trigger.
func (g *Guard) Floor(x float64) float64 {
	v, hit := Floor(x, g.Epsilon)
	if hit {
		g.triggered.Add(1)
	}
	return v
}

func (g *Guard) Add(n int64) {
	if n != 0 {
		g.triggered.Add(n)
	}
}

// Triggered returns how many clamps have fired so far.
func (g *Guard) Triggered() int64 {
	return g.triggered.Load()
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
