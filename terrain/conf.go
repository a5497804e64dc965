package terrain

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/df-mc/splatgen/terrain/biome"
	"github.com/df-mc/splatgen/terrain/noise"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/segmentio/fasthash/fnv1a"
)

// UserConfig is the user configuration of a terrain generator. It may be serialised to TOML and can be
// converted to a Config by calling UserConfig.Config().
type UserConfig struct {
	Terrain struct {
		// Width and Height are the size of the terrain in world units. The heightmap resolution is Width+1.
		Width, Height int
		// Depth is the world height of the highest possible point of the terrain.
		Depth float64
		// Scale is the extent of noise space covered by the terrain. Larger values produce more, smaller
		// features. 0 produces flat terrain.
		Scale float64
		// OffsetX and OffsetY move the sampled area of noise space, revealing different terrain for the same
		// seed.
		OffsetX, OffsetY float64
		// SeaLevel is the normalised height in [0, 1) below which terrain is flattened into water basins.
		SeaLevel float64
		// AlphamapResolution is the width and height of the splatmap of the terrain.
		AlphamapResolution int
	}
	Noise struct {
		// Seed selects the noise permutation. It is ignored if SeedPhrase is set.
		Seed int64
		// SeedPhrase, if not empty, is hashed into the seed so that memorable phrases may be shared instead of
		// numbers.
		SeedPhrase string
		// Type is the base noise: "perlin", "opensimplex2", "value" or "cellular".
		Type string
		// Fractal is the octave combination: "none", "fbm", "ridged" or "pingpong".
		Fractal string
		// Octaves is the number of octaves layered by the fractal.
		Octaves int
		// Gain and Lacunarity scale the amplitude and frequency of each successive octave.
		Gain, Lacunarity float64
		// Frequency multiplies noise coordinates.
		Frequency float64
		// WeightedStrength biases later octaves by the value of earlier ones.
		WeightedStrength float64
		// PingPongStrength is the triangle wave gain of the "pingpong" fractal.
		PingPongStrength float64
	}
	Splat struct {
		// Rule is the classification rule: "threshold" for discrete height bands or "continuous" for blended
		// height, slope and facing influences.
		Rule string
		// SandBelow and GrassBelow are the upper bounds of the sand and grass bands of the threshold rule.
		SandBelow, GrassBelow float64
		// Baseline is the constant sand weight of the continuous rule.
		Baseline float64
		// HeightWeight scales the height driven grass and snow weights of the continuous rule. Values below 1
		// keep flat ground dominated by the flatness layer.
		HeightWeight float64
		// Degenerate is the handling of texels with all-zero weights: "fail" or "fallback".
		Degenerate string
		// FallbackLayer is the layer degenerate texels receive when Degenerate is "fallback".
		FallbackLayer string
		// Workers is the number of goroutines classifying the splatmap. 0 uses every CPU.
		Workers int
	}
	Store struct {
		// Enabled controls whether generated buffers are persisted to a LevelDB database.
		Enabled bool
		// Folder is the folder the database resides in.
		Folder string
	}
}

// Config converts a UserConfig to a Config, so that it may be used for creating a Pipeline. The Host of the
// Config returned is not set. An error is returned if any of the names in the UserConfig are unknown.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	n, err := uc.noiseConfig()
	if err != nil {
		return Config{}, err
	}
	conf := Config{
		Log:        log,
		Dimensions: Dimensions{Width: uc.Terrain.Width, Height: uc.Terrain.Height, Depth: uc.Terrain.Depth},
		Noise:      n,
		Scale:      uc.Terrain.Scale,
		Offset:     mgl64.Vec2{uc.Terrain.OffsetX, uc.Terrain.OffsetY},
		SeaLevel:   uc.Terrain.SeaLevel,
		Workers:    uc.Splat.Workers,
	}

	kind, err := biome.ParseRuleKind(uc.Splat.Rule)
	if err != nil {
		return Config{}, fmt.Errorf("splat rule: %w", err)
	}
	switch kind {
	case biome.RuleThreshold:
		conf.Rule = biome.Threshold{SandBelow: uc.Splat.SandBelow, GrassBelow: uc.Splat.GrassBelow}
	case biome.RuleContinuous:
		conf.Rule = biome.Continuous{Baseline: uc.Splat.Baseline, HeightWeight: uc.Splat.HeightWeight}
	}

	switch strings.ToLower(strings.TrimSpace(uc.Splat.Degenerate)) {
	case "", "fail":
		conf.Degenerate = biome.DegenerateFail
	case "fallback":
		conf.Degenerate = biome.DegenerateFallback
	default:
		return Config{}, fmt.Errorf("degenerate policy %q: %w", uc.Splat.Degenerate, ErrInvalidConfiguration)
	}
	if uc.Splat.FallbackLayer != "" {
		if conf.FallbackLayer, err = biome.ParseLayer(uc.Splat.FallbackLayer); err != nil {
			return Config{}, fmt.Errorf("fallback layer: %w", err)
		}
	}
	return conf, nil
}

func (uc UserConfig) noiseConfig() (noise.Config, error) {
	typ, err := noise.ParseType(uc.Noise.Type)
	if err != nil {
		return noise.Config{}, err
	}
	fractal, err := noise.ParseFractal(uc.Noise.Fractal)
	if err != nil {
		return noise.Config{}, err
	}
	seed := uc.Noise.Seed
	if uc.Noise.SeedPhrase != "" {
		seed = SeedFromPhrase(uc.Noise.SeedPhrase)
	}
	return noise.Config{
		Seed:             seed,
		Type:             typ,
		Fractal:          fractal,
		Octaves:          uc.Noise.Octaves,
		Gain:             uc.Noise.Gain,
		Lacunarity:       uc.Noise.Lacunarity,
		Frequency:        uc.Noise.Frequency,
		WeightedStrength: uc.Noise.WeightedStrength,
		PingPongStrength: uc.Noise.PingPongStrength,
	}, nil
}

// SeedFromPhrase hashes a phrase into a noise seed. Equal phrases always produce equal seeds.
func SeedFromPhrase(phrase string) int64 {
	return int64(fnv1a.HashString64(phrase))
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	n := noise.DefaultConfig()
	t, c := biome.DefaultThreshold(), biome.DefaultContinuous()

	uc := UserConfig{}
	uc.Terrain.Width = 1024
	uc.Terrain.Height = 1024
	uc.Terrain.Depth = 20
	uc.Terrain.Scale = 35
	uc.Terrain.SeaLevel = 0.5
	uc.Terrain.AlphamapResolution = 512
	uc.Noise.Seed = n.Seed
	uc.Noise.Type = n.Type.String()
	uc.Noise.Fractal = n.Fractal.String()
	uc.Noise.Octaves = n.Octaves
	uc.Noise.Gain = n.Gain
	uc.Noise.Lacunarity = n.Lacunarity
	uc.Noise.Frequency = n.Frequency
	uc.Noise.PingPongStrength = n.PingPongStrength
	uc.Splat.Rule = biome.RuleThreshold.String()
	uc.Splat.SandBelow = t.SandBelow
	uc.Splat.GrassBelow = t.GrassBelow
	uc.Splat.Baseline = c.Baseline
	uc.Splat.HeightWeight = c.HeightWeight
	uc.Splat.Degenerate = biome.DegenerateFallback.String()
	uc.Splat.FallbackLayer = biome.LayerSand.String()
	uc.Store.Folder = "terrain"
	return uc
}
