package biome

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/df-mc/splatgen/internal/mathx"
	"github.com/df-mc/splatgen/terrain/errs"
	"github.com/df-mc/splatgen/terrain/heightfield"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// Surface answers surface queries about terrain that has already been committed to a host. Coordinates are
// normalised to [0, 1]. Implementations must be safe for concurrent use.
type Surface interface {
	// Normal returns the interpolated surface normal at (x01, y01). Z points up.
	Normal(x01, y01 float64) (mgl64.Vec3, error)
	// Steepness returns the slope at (x01, y01) in degrees.
	Steepness(x01, y01 float64) (float64, error)
}

// DegeneratePolicy controls what happens to a texel whose raw weights sum to zero.
type DegeneratePolicy uint8

const (
	// DegenerateFail aborts classification with errs.ErrDegenerateWeights.
	DegenerateFail DegeneratePolicy = iota
	// DegenerateFallback gives the fallback layer the full weight and counts the texel in Splatmap.Fallbacks.
	DegenerateFallback
)

// String ...
func (p DegeneratePolicy) String() string {
	if p == DegenerateFallback {
		return "fallback"
	}
	return "fail"
}

// Classifier computes a splatmap from a height grid and surface queries.
type Classifier struct {
	// Log receives a warning when texels fall back to FallbackLayer. If nil, slog.Default() is used.
	Log *slog.Logger
	// Width and Height are the alphamap resolution. They may differ from the height grid's resolution.
	Width, Height int
	// Layers is the number of layers the host expects. It must match Rule.Layers().
	Layers int
	// Depth is the world height of a normalised height of 1.
	Depth float64
	// Rule computes the raw weights of each texel.
	Rule Rule
	// Degenerate selects the handling of texels with all-zero weights.
	Degenerate DegeneratePolicy
	// FallbackLayer receives the full weight of degenerate texels under DegenerateFallback.
	FallbackLayer Layer
	// Workers is the maximum number of goroutines classifying rows concurrently. If 0 or lower, the number of
	// CPUs is used.
	Workers int
}

// Validate checks the classifier parameters without classifying anything.
func (c Classifier) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("alphamap size %dx%d: %w", c.Width, c.Height, errs.ErrInvalidConfiguration)
	}
	if c.Rule == nil {
		return fmt.Errorf("no classification rule: %w", errs.ErrInvalidConfiguration)
	}
	if v, ok := c.Rule.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.Layers != c.Rule.Layers() {
		return fmt.Errorf("host expects %d layers, rule produces %d: %w", c.Layers, c.Rule.Layers(), errs.ErrInvalidConfiguration)
	}
	if !(c.Depth > 0) || !mathx.Finite(c.Depth) {
		return fmt.Errorf("terrain depth %v must be positive: %w", c.Depth, errs.ErrInvalidConfiguration)
	}
	if c.Degenerate == DegenerateFallback && c.FallbackLayer.Index() >= c.Layers {
		return fmt.Errorf("fallback layer %v outside %d layers: %w", c.FallbackLayer, c.Layers, errs.ErrInvalidConfiguration)
	}
	return nil
}

// Classify computes the normalised splatmap of the terrain. For every texel, the height is resampled from
// heights at the nearest cell, the normal and steepness are queried from surface and the Rule's weights are
// normalised. Rows are classified concurrently; the first error cancels the remaining work and is returned.
func (c Classifier) Classify(ctx context.Context, heights *heightfield.Grid, surface Surface) (*Splatmap, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if heights == nil || surface == nil {
		return nil, fmt.Errorf("classify: missing heights or surface: %w", errs.ErrInvalidConfiguration)
	}
	m, err := NewSplatmap(c.Width, c.Height, c.Layers)
	if err != nil {
		return nil, err
	}
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var fallbacks atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	band := max(1, c.Width/(workers*4))
	for lo := 0; lo < c.Width; lo += band {
		hi := min(lo+band, c.Width)
		g.Go(func() error {
			n, err := c.classifyRows(ctx, m, lo, hi, heights, surface)
			fallbacks.Add(int64(n))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	m.fallbacks = int(fallbacks.Load())
	if m.fallbacks > 0 {
		log := c.Log
		if log == nil {
			log = slog.Default()
		}
		log.Warn("Degenerate splat weights replaced by fallback layer.", "texels", m.fallbacks, "layer", c.FallbackLayer.String())
	}
	return m, nil
}

// classifyRows classifies the texels with x in [lo, hi) and returns the number of fallbacks used.
func (c Classifier) classifyRows(ctx context.Context, m *Splatmap, lo, hi int, heights *heightfield.Grid, surface Surface) (int, error) {
	fallbacks := 0
	for x := lo; x < hi; x++ {
		if err := ctx.Err(); err != nil {
			return fallbacks, err
		}
		x01 := float64(x) / float64(c.Width)
		for y := 0; y < c.Height; y++ {
			y01 := float64(y) / float64(c.Height)

			s, err := c.sample(x01, y01, heights, surface)
			if err != nil {
				return fallbacks, err
			}
			w := m.Weights(x, y)
			c.Rule.Weights(s, w)
			if err := Normalize(w); err != nil {
				if c.Degenerate != DegenerateFallback {
					return fallbacks, fmt.Errorf("texel (%d, %d): %w", x, y, err)
				}
				clear(w)
				w[c.FallbackLayer] = 1
				fallbacks++
			}
		}
	}
	return fallbacks, nil
}

func (c Classifier) sample(x01, y01 float64, heights *heightfield.Grid, surface Surface) (Sample, error) {
	h := heights.Nearest(x01, y01)
	if !(h >= 0 && h <= 1) {
		return Sample{}, fmt.Errorf("height %v at (%.4f, %.4f) outside [0, 1]: %w", h, x01, y01, errs.ErrHostQuery)
	}
	n, err := surface.Normal(x01, y01)
	if err != nil {
		return Sample{}, fmt.Errorf("normal at (%.4f, %.4f): %w: %w", x01, y01, errs.ErrHostQuery, err)
	}
	if !mathx.Finite(n.X()) || !mathx.Finite(n.Y()) || !mathx.Finite(n.Z()) || n.Len() == 0 {
		return Sample{}, fmt.Errorf("normal %v at (%.4f, %.4f) is not a direction: %w", n, x01, y01, errs.ErrHostQuery)
	}
	steepness, err := surface.Steepness(x01, y01)
	if err != nil {
		return Sample{}, fmt.Errorf("steepness at (%.4f, %.4f): %w: %w", x01, y01, errs.ErrHostQuery, err)
	}
	if steepness < 0 || !mathx.Finite(steepness) {
		return Sample{}, fmt.Errorf("steepness %v at (%.4f, %.4f) out of range: %w", steepness, x01, y01, errs.ErrHostQuery)
	}
	return Sample{
		X01:        x01,
		Y01:        y01,
		Height:     h,
		Depth:      c.Depth,
		Resolution: heights.Width(),
		Normal:     n,
		Steepness:  steepness,
	}, nil
}
