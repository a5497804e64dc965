// Package mathx holds small generic numeric helpers shared by the terrain packages.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to the closed range [lo, hi].
func Clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1].
func Clamp01[T constraints.Float](v T) T {
	return Clamp(v, 0, 1)
}

// Lerp interpolates between a and b. t is not clamped.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + t*(b-a)
}

// Finite reports if v is neither NaN nor infinite.
func Finite[T constraints.Float](v T) bool {
	f := float64(v)
	return f == f && f-f == 0
}
