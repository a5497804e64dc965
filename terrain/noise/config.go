package noise

import (
	"fmt"
	"strings"

	"github.com/df-mc/splatgen/terrain/errs"
)

// Type is the base coherent noise algorithm a Sampler evaluates per octave.
type Type uint8

const (
	// Perlin is classic gradient noise.
	Perlin Type = iota
	// OpenSimplex2 is gradient noise on a simplex lattice, free of the axis aligned artefacts of Perlin noise.
	OpenSimplex2
	// Value interpolates hashed random values at integer lattice points.
	Value
	// Cellular returns the distance to the nearest jittered feature point (Worley F1).
	Cellular
)

// String ...
func (t Type) String() string {
	switch t {
	case Perlin:
		return "perlin"
	case OpenSimplex2:
		return "opensimplex2"
	case Value:
		return "value"
	case Cellular:
		return "cellular"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ParseType parses the name of a noise type. Names are case-insensitive and "simplex" is accepted as an alias
// of OpenSimplex2.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "perlin":
		return Perlin, nil
	case "opensimplex2", "opensimplex", "simplex":
		return OpenSimplex2, nil
	case "value":
		return Value, nil
	case "cellular", "worley":
		return Cellular, nil
	}
	return 0, fmt.Errorf("noise type %q: %w", name, errs.ErrInvalidConfiguration)
}

// Fractal controls how octaves of the base noise are combined.
type Fractal uint8

const (
	// FractalNone samples a single octave.
	FractalNone Fractal = iota
	// FractalFBm sums octaves with decreasing amplitude (fractional Brownian motion).
	FractalFBm
	// FractalRidged folds each octave around zero to produce sharp ridges.
	FractalRidged
	// FractalPingPong feeds each octave through a triangle wave, producing terraced bands.
	FractalPingPong
)

// String ...
func (f Fractal) String() string {
	switch f {
	case FractalNone:
		return "none"
	case FractalFBm:
		return "fbm"
	case FractalRidged:
		return "ridged"
	case FractalPingPong:
		return "pingpong"
	}
	return fmt.Sprintf("Fractal(%d)", uint8(f))
}

// ParseFractal parses the name of a fractal type. An empty name is FractalNone.
func ParseFractal(name string) (Fractal, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return FractalNone, nil
	case "fbm":
		return FractalFBm, nil
	case "ridged":
		return FractalRidged, nil
	case "pingpong", "ping_pong":
		return FractalPingPong, nil
	}
	return 0, fmt.Errorf("fractal type %q: %w", name, errs.ErrInvalidConfiguration)
}

// Config holds every parameter that affects the output of a Sampler. A Config is a plain value: changing it
// after New has returned does not affect the Sampler built from it.
type Config struct {
	// Seed selects the permutation of the noise. Equal seeds produce equal noise.
	Seed int64
	// Type is the base noise algorithm.
	Type Type
	// Fractal is the octave combination mode.
	Fractal Fractal
	// Octaves is the number of octaves summed when Fractal is not FractalNone. It must be at least 1.
	Octaves int
	// Gain scales the amplitude of each successive octave.
	Gain float64
	// Lacunarity scales the frequency of each successive octave.
	Lacunarity float64
	// Frequency multiplies the input coordinates before sampling.
	Frequency float64
	// WeightedStrength biases the amplitude of later octaves by the value of earlier ones. 0 disables it.
	WeightedStrength float64
	// PingPongStrength is the triangle wave gain used by FractalPingPong. Defaults to 2.
	PingPongStrength float64
}

// DefaultConfig returns the configuration the generator ships with: five octaves of fractal Perlin noise.
func DefaultConfig() Config {
	return Config{
		Seed:             10,
		Type:             Perlin,
		Fractal:          FractalFBm,
		Octaves:          5,
		Gain:             0.5,
		Lacunarity:       2,
		Frequency:        0.25,
		PingPongStrength: 2,
	}
}

func (c Config) withDefaults() Config {
	if c.Octaves == 0 {
		c.Octaves = 1
	}
	if c.Frequency == 0 {
		c.Frequency = 1
	}
	if c.Lacunarity == 0 {
		c.Lacunarity = 2
	}
	if c.PingPongStrength == 0 {
		c.PingPongStrength = 2
	}
	return c
}

// Validate checks if the configuration can be sampled. Zero values that New would replace with defaults are
// accepted.
func (c Config) Validate() error {
	if c.Type > Cellular {
		return fmt.Errorf("unsupported noise type %v: %w", c.Type, errs.ErrInvalidConfiguration)
	}
	if c.Fractal > FractalPingPong {
		return fmt.Errorf("unsupported fractal type %v: %w", c.Fractal, errs.ErrInvalidConfiguration)
	}
	c = c.withDefaults()
	if c.Octaves < 1 {
		return fmt.Errorf("octaves must be at least 1, got %d: %w", c.Octaves, errs.ErrInvalidConfiguration)
	}
	if c.Frequency <= 0 {
		return fmt.Errorf("frequency must be positive, got %v: %w", c.Frequency, errs.ErrInvalidConfiguration)
	}
	if c.Fractal != FractalNone && c.Lacunarity <= 0 {
		return fmt.Errorf("lacunarity must be positive, got %v: %w", c.Lacunarity, errs.ErrInvalidConfiguration)
	}
	return nil
}
