// Package noise implements the coherent noise sampler terrain heights are drawn from. A Sampler is built once
// per generation pass from an immutable Config and is safe for concurrent use by any number of goroutines.
package noise

import (
	"math"

	"github.com/df-mc/splatgen/internal/mathx"
)

// Sampler evaluates fractal coherent noise. The zero value is not usable: Samplers must be created with New.
type Sampler struct {
	conf     Config
	octaves  []source
	bounding float64
}

// New validates conf and builds a Sampler from it. An error wrapping errs.ErrInvalidConfiguration is returned
// if the noise or fractal type is unsupported or a parameter is out of range.
func New(conf Config) (*Sampler, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	conf = conf.withDefaults()

	n := conf.Octaves
	if conf.Fractal == FractalNone {
		n = 1
	}
	s := &Sampler{conf: conf, octaves: make([]source, n), bounding: fractalBounding(conf.Gain, n)}
	for i := range s.octaves {
		// Every octave uses its own seed so that octaves do not correlate at the origin.
		s.octaves[i] = newSource(conf.Type, conf.Seed+int64(i))
	}
	return s, nil
}

// Config returns the configuration the Sampler was built with, with defaults applied.
func (s *Sampler) Config() Config {
	return s.conf
}

// Sample returns the noise value at the continuous coordinates (x, y). The result is always within [-1, 1] and
// depends only on the Sampler's Config and the coordinates passed.
func (s *Sampler) Sample(x, y float64) float64 {
	x, y = x*s.conf.Frequency, y*s.conf.Frequency

	var v float64
	switch s.conf.Fractal {
	case FractalFBm:
		v = s.fbm(x, y)
	case FractalRidged:
		v = s.ridged(x, y)
	case FractalPingPong:
		v = s.pingPong(x, y)
	default:
		v = s.octaves[0].eval(x, y)
	}
	return mathx.Clamp(v, -1, 1)
}

func (s *Sampler) fbm(x, y float64) float64 {
	var sum float64
	amp := s.bounding
	for _, src := range s.octaves {
		n := src.eval(x, y)
		sum += n * amp
		amp *= mathx.Lerp(1, min(n+1, 2)*0.5, s.conf.WeightedStrength)

		x, y = x*s.conf.Lacunarity, y*s.conf.Lacunarity
		amp *= s.conf.Gain
	}
	return sum
}

func (s *Sampler) ridged(x, y float64) float64 {
	var sum float64
	amp := s.bounding
	for _, src := range s.octaves {
		n := math.Abs(src.eval(x, y))
		sum += (n*-2 + 1) * amp
		amp *= mathx.Lerp(1, 1-n, s.conf.WeightedStrength)

		x, y = x*s.conf.Lacunarity, y*s.conf.Lacunarity
		amp *= s.conf.Gain
	}
	return sum
}

func (s *Sampler) pingPong(x, y float64) float64 {
	var sum float64
	amp := s.bounding
	for _, src := range s.octaves {
		n := pingPong((src.eval(x, y) + 1) * s.conf.PingPongStrength)
		sum += (n - 0.5) * 2 * amp
		amp *= mathx.Lerp(1, n, s.conf.WeightedStrength)

		x, y = x*s.conf.Lacunarity, y*s.conf.Lacunarity
		amp *= s.conf.Gain
	}
	return sum
}

// fractalBounding returns the factor that scales the sum of n octaves with the gain passed back to [-1, 1].
func fractalBounding(gain float64, n int) float64 {
	amp, total := math.Abs(gain), 1.0
	for i := 1; i < n; i++ {
		total += amp
		amp *= math.Abs(gain)
	}
	return 1 / total
}

// pingPong folds t into a triangle wave with period 2 and range [0, 1].
func pingPong(t float64) float64 {
	t -= math.Trunc(t*0.5) * 2
	if t < 1 {
		return t
	}
	return 2 - t
}
