// Package heightfield samples a noise source over a regular grid to produce normalised terrain heights.
//
// Sampler output is treated as signed noise in [-1, 1] and remapped linearly onto [0, 1], the range terrain
// hosts store heights in. An optional sea level flattens everything below it to exactly 0.
package heightfield

import (
	"fmt"
	"math"

	"github.com/df-mc/splatgen/internal/mathx"
	"github.com/df-mc/splatgen/terrain/errs"
	"github.com/dgravesa/go-parallel/parallel"
	"github.com/go-gl/mathgl/mgl64"
)

// Sampler is a source of coherent noise in [-1, 1]. Implementations must be safe for concurrent use, as rows
// are sampled in parallel.
type Sampler interface {
	Sample(x, y float64) float64
}

// SamplerFunc is a function implementing Sampler.
type SamplerFunc func(x, y float64) float64

// Sample calls f(x, y).
func (f SamplerFunc) Sample(x, y float64) float64 {
	return f(x, y)
}

// Builder holds the coordinate transform and remapping used to turn noise into heights.
type Builder struct {
	// Scale is the extent of noise space the grid covers along each axis. A Scale of 0 maps every cell onto the
	// same noise coordinate and yields a flat grid.
	Scale float64
	// Offset translates the sampled area of noise space.
	Offset mgl64.Vec2
	// SeaLevel is the normalised height in [0, 1) below which terrain is flattened to 0. Heights above it are
	// stretched back to fill [0, 1]. 0 disables flattening.
	SeaLevel float64
}

// Build samples s over a width by height grid. Cell (x, y) is sampled at
// (x/width*Scale + Offset.X, y/height*Scale + Offset.Y) and remapped with Remap. Columns are filled in
// parallel; each cell is written exactly once.
func (b Builder) Build(width, height int, s Sampler) (*Grid, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("build heights: nil sampler: %w", errs.ErrInvalidConfiguration)
	}
	g, err := NewGrid(width, height)
	if err != nil {
		return nil, fmt.Errorf("build heights: %w", err)
	}

	fw, fh := float64(width), float64(height)
	parallel.For(width, func(x, _ int) {
		cx := float64(x)/fw*b.Scale + b.Offset.X()
		column := g.values[x*height : (x+1)*height]
		for y := range column {
			cy := float64(y)/fh*b.Scale + b.Offset.Y()
			column[y] = Remap(s.Sample(cx, cy), b.SeaLevel)
		}
	})
	return g, nil
}

// Validate checks that the transform is finite and the sea level is within [0, 1).
func (b Builder) Validate() error {
	if !mathx.Finite(b.Scale) || !mathx.Finite(b.Offset.X()) || !mathx.Finite(b.Offset.Y()) {
		return fmt.Errorf("scale %v and offset %v must be finite: %w", b.Scale, b.Offset, errs.ErrInvalidConfiguration)
	}
	if b.SeaLevel < 0 || b.SeaLevel >= 1 || math.IsNaN(b.SeaLevel) {
		return fmt.Errorf("sea level %v outside [0, 1): %w", b.SeaLevel, errs.ErrInvalidConfiguration)
	}
	return nil
}

// Remap converts a raw noise value in [-1, 1] to a normalised height in [0, 1]. Values below seaLevel become
// exactly 0. Raw values outside [-1, 1] are clamped.
func Remap(raw, seaLevel float64) float64 {
	h := mathx.Clamp01((raw + 1) / 2)
	if seaLevel > 0 {
		h = max(0, (h-seaLevel)/(1-seaLevel))
	}
	return h
}
