package models

import (
	"fmt"
)

// AtmosphericLight is the global haze colour, one value per channel. It is
// computed once per run and shared read-only by every later stage.
type AtmosphericLight [3]float64

// Floored returns a copy with every channel raised to at least floor.
func (a AtmosphericLight) Floored(floor float64) AtmosphericLight {
	for c := range a {
		a[c] = max(a[c], floor)
	}
	return a
}

func (a AtmosphericLight) String() string {
	return fmt.Sprintf("[%.4f %.4f %.4f]", a[0], a[1], a[2])
}

// LightEstimate is the outcome of atmospheric-light estimation on the reduced
// image.
type LightEstimate struct {
	// Light is the floored estimate used by the rest of the pipeline.
	Light AtmosphericLight
	// Raw is the light before the floor was applied.
	Raw AtmosphericLight
	// X and Y locate the selected dark-map cell in reduced coordinates.
	X, Y int
	// Dark is the dark-map value at (X, Y).
	Dark float64
	// Samples is how many pixels contributed to Raw.
	Samples int
}
