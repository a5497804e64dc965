package biome

import (
	"fmt"

	"github.com/df-mc/splatgen/internal/mathx"
	"github.com/df-mc/splatgen/terrain/errs"
)

// Normalize scales w in place so that its components sum to 1. An error wrapping errs.ErrDegenerateWeights is
// returned, and w is left untouched, if the components sum to 0 or any component is negative or not finite.
func Normalize(w []float64) error {
	var z float64
	for i, v := range w {
		if v < 0 || !mathx.Finite(v) {
			return fmt.Errorf("weight %d is %v: %w", i, v, errs.ErrDegenerateWeights)
		}
		z += v
	}
	if !(z > 0) {
		return fmt.Errorf("weights %v sum to zero: %w", w, errs.ErrDegenerateWeights)
	}
	for i := range w {
		w[i] /= z
	}
	return nil
}

// Dominant returns the layer with the highest weight in w. Ties are won by the lowest index.
func Dominant(w []float64) Layer {
	best := 0
	for i := 1; i < len(w); i++ {
		if w[i] > w[best] {
			best = i
		}
	}
	return Layer(best)
}
