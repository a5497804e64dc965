package biome

import (
	"fmt"
	"math"
	"strings"

	"github.com/df-mc/splatgen/internal/mathx"
	"github.com/df-mc/splatgen/terrain/errs"
	"github.com/go-gl/mathgl/mgl64"
)

// Sample is everything known about a single splatmap texel when its weights are computed.
type Sample struct {
	// X01 and Y01 are the normalised coordinates of the texel.
	X01, Y01 float64
	// Height is the normalised terrain height at the texel, in [0, 1].
	Height float64
	// Depth is the world height of a normalised height of 1.
	Depth float64
	// Resolution is the heightmap resolution of the terrain.
	Resolution int
	// Normal is the surface normal reported by the host. Z points up.
	Normal mgl64.Vec3
	// Steepness is the slope reported by the host, in degrees.
	Steepness float64
}

// WorldHeight returns the height of the texel in world units.
func (s Sample) WorldHeight() float64 {
	return s.Height * s.Depth
}

// Rule computes the raw, unnormalised layer weights of a texel. Implementations must be safe for concurrent
// use and write exactly Layers() values to dst.
type Rule interface {
	// Layers returns the number of layers the rule produces weights for.
	Layers() int
	// Weights writes the raw weights of s to dst.
	Weights(s Sample, dst []float64)
}

// RuleKind selects one of the built-in rules.
type RuleKind uint8

const (
	// RuleThreshold assigns each texel to exactly one layer using height bands.
	RuleThreshold RuleKind = iota
	// RuleContinuous blends layers using independent height, slope and facing influences.
	RuleContinuous
)

// String ...
func (k RuleKind) String() string {
	switch k {
	case RuleThreshold:
		return "threshold"
	case RuleContinuous:
		return "continuous"
	}
	return fmt.Sprintf("RuleKind(%d)", uint8(k))
}

// ParseRuleKind parses the name of a built-in rule.
func ParseRuleKind(name string) (RuleKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "threshold", "bands":
		return RuleThreshold, nil
	case "continuous", "blend":
		return RuleContinuous, nil
	}
	return 0, fmt.Errorf("rule %q: %w", name, errs.ErrInvalidConfiguration)
}

// DefaultRule returns the built-in rule of the kind passed with its default parameters.
func DefaultRule(k RuleKind) (Rule, error) {
	switch k {
	case RuleThreshold:
		return DefaultThreshold(), nil
	case RuleContinuous:
		return DefaultContinuous(), nil
	}
	return nil, fmt.Errorf("unsupported rule %v: %w", k, errs.ErrInvalidConfiguration)
}

// Threshold classifies texels into discrete height bands. The height is expressed as
// WorldHeight / Resolution * 10 and compared against ascending, half-open bounds: exactly 0 is water, below
// SandBelow is sand, below GrassBelow is grass and everything else is snow.
type Threshold struct {
	SandBelow  float64
	GrassBelow float64
}

// DefaultThreshold returns the band bounds the generator ships with.
func DefaultThreshold() Threshold {
	return Threshold{SandBelow: 0.10, GrassBelow: 0.60}
}

// Layers ...
func (Threshold) Layers() int {
	return LayerCount
}

// Layer returns the layer a height percentage falls into.
func (t Threshold) Layer(percent float64) Layer {
	switch {
	case percent == 0:
		return LayerWater
	case percent < t.SandBelow:
		return LayerSand
	case percent < t.GrassBelow:
		return LayerGrass
	default:
		return LayerSnow
	}
}

// Percent returns the height percentage of s used to select a band.
func (Threshold) Percent(s Sample) float64 {
	return s.WorldHeight() / float64(s.Resolution) * 10
}

// Weights gives the selected layer a weight of 1 and every other layer 0.
func (t Threshold) Weights(s Sample, dst []float64) {
	clear(dst)
	dst[t.Layer(t.Percent(s))] = 1
}

// Validate checks that the bounds are ascending and non-negative.
func (t Threshold) Validate() error {
	if !(t.SandBelow >= 0) || !(t.GrassBelow >= t.SandBelow) || math.IsInf(t.GrassBelow, 0) {
		return fmt.Errorf("threshold bounds sand<%v grass<%v must ascend from 0: %w", t.SandBelow, t.GrassBelow, errs.ErrInvalidConfiguration)
	}
	return nil
}

// Continuous weighs every layer independently and lets normalisation blend them:
//   - sand has a constant Baseline weight,
//   - grass falls off linearly with height,
//   - water falls off with the square of the steepness, normalised by a fifth of the resolution, favouring flat
//     ground,
//   - snow grows with height, scaled by how much the surface faces up.
//
// Grass and snow are scaled by HeightWeight. Every weight is clamped to [0, 1] before normalisation.
type Continuous struct {
	Baseline float64
	// HeightWeight scales the height driven grass and snow weights. Below 1, completely flat ground is
	// dominated by the flatness layer at every height. A zero HeightWeight disables grass and snow.
	HeightWeight float64
}

// DefaultContinuous returns the blend parameters the generator ships with.
func DefaultContinuous() Continuous {
	return Continuous{Baseline: 0.5, HeightWeight: 0.9}
}

// Layers ...
func (Continuous) Layers() int {
	return LayerCount
}

// Weights ...
func (c Continuous) Weights(s Sample, dst []float64) {
	dst[LayerSand] = mathx.Clamp01(c.Baseline)
	dst[LayerGrass] = mathx.Clamp01(c.HeightWeight * (1 - s.Height))
	dst[LayerWater] = 1 - mathx.Clamp01(s.Steepness*s.Steepness/(float64(s.Resolution)/5))
	dst[LayerSnow] = mathx.Clamp01(c.HeightWeight * s.Height * mathx.Clamp01(s.Normal.Z()))
}

// Validate checks that the baseline and height weight are usable weights.
func (c Continuous) Validate() error {
	if !mathx.Finite(c.Baseline) || c.Baseline < 0 {
		return fmt.Errorf("continuous baseline %v must be a non-negative number: %w", c.Baseline, errs.ErrInvalidConfiguration)
	}
	if !mathx.Finite(c.HeightWeight) || c.HeightWeight < 0 {
		return fmt.Errorf("continuous height weight %v must be a non-negative number: %w", c.HeightWeight, errs.ErrInvalidConfiguration)
	}
	return nil
}
