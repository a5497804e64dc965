// Package terrain generates a heightmap and matching splatmap into a terrain host. A Pipeline samples coherent
// noise into a height grid, commits it to the host, classifies every alphamap texel into texture layers using
// the host's surface queries and commits the resulting splatmap.
package terrain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/df-mc/splatgen/terrain/biome"
	"github.com/df-mc/splatgen/terrain/errs"
	"github.com/df-mc/splatgen/terrain/heightfield"
	"github.com/df-mc/splatgen/terrain/noise"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

var (
	// ErrInvalidConfiguration is returned by Generate when the configuration cannot be generated. Nothing has
	// been committed to the host when it is returned.
	ErrInvalidConfiguration = errs.ErrInvalidConfiguration
	// ErrDegenerateWeights is returned by Generate when a texel has no usable layer weights and the pipeline is
	// configured to fail on them.
	ErrDegenerateWeights = errs.ErrDegenerateWeights
	// ErrHostQuery is returned by Generate when the host fails a query or answers with out of range data.
	ErrHostQuery = errs.ErrHostQuery
)

// Config contains the options of a Pipeline.
type Config struct {
	// Log is the Logger to use for logging generation progress. If nil, Log is set to slog.Default().
	Log *slog.Logger
	// Host is the terrain generated into. It must be set.
	Host Host
	// Metrics, if not nil, is updated after every generation.
	Metrics *Metrics
	// Dimensions is the world-space size of the terrain.
	Dimensions Dimensions
	// Noise configures the sampler heights are drawn from. A new sampler is built from it for every
	// generation.
	Noise noise.Config
	// Scale is the extent of noise space covered by the terrain. A Scale of 0 produces flat terrain.
	Scale float64
	// Offset translates the sampled area of noise space.
	Offset mgl64.Vec2
	// SeaLevel is the normalised height below which terrain is flattened to 0, forming water basins.
	SeaLevel float64
	// Rule computes texture layer weights. If nil, the default threshold rule is used.
	Rule biome.Rule
	// Degenerate controls the handling of texels whose raw weights sum to zero.
	Degenerate biome.DegeneratePolicy
	// FallbackLayer receives degenerate texels when Degenerate is biome.DegenerateFallback.
	FallbackLayer biome.Layer
	// Workers limits the number of goroutines classifying the splatmap. If 0 or lower, the number of CPUs is
	// used.
	Workers int
}

// New creates a Pipeline using the fields of conf.
func (conf Config) New() *Pipeline {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Rule == nil {
		conf.Rule = biome.DefaultThreshold()
	}
	return &Pipeline{conf: conf}
}

// Pipeline generates terrain into a Host. Generate calls are serialised, and configuration changes made while a
// generation is running take effect for the next one.
type Pipeline struct {
	mu   sync.Mutex
	conf Config
}

// Result describes a successful generation.
type Result struct {
	// ID identifies the generation in logs.
	ID uuid.UUID
	// Heights is the grid committed to the host.
	Heights *heightfield.Grid
	// Splatmap is the splatmap committed to the host.
	Splatmap *biome.Splatmap
	// Coverage holds the number of texels dominated by each layer.
	Coverage [biome.LayerCount]int
	// HeightsDuration and SplatDuration are the time spent building heights and classifying the splatmap.
	HeightsDuration, SplatDuration time.Duration
}

// SetNoise replaces the noise configuration used by subsequent generations.
func (p *Pipeline) SetNoise(c noise.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conf.Noise = c
}

// SetRule replaces the classification rule used by subsequent generations. A nil rule selects the default
// threshold rule.
func (p *Pipeline) SetRule(r biome.Rule) {
	if r == nil {
		r = biome.DefaultThreshold()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conf.Rule = r
}

// SetDimensions replaces the terrain dimensions used by subsequent generations.
func (p *Pipeline) SetDimensions(d Dimensions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conf.Dimensions = d
}

// Config returns a copy of the configuration the next generation will use.
func (p *Pipeline) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conf
}

// Generate regenerates the terrain of the host from scratch: it builds a fresh sampler, samples the height
// grid, commits it, classifies the splatmap against the committed heights and commits the splatmap.
// Configuration errors are reported before the host is touched, except for an alphamap size the host only
// reports after Resize. Generation is deterministic: unchanged
// configuration and host answers produce bit-identical buffers.
func (p *Pipeline) Generate(ctx context.Context) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := Result{ID: uuid.New()}
	log := p.conf.Log.With("generation", res.ID.String())

	err := p.generate(ctx, log, &res)
	if err != nil {
		p.conf.Metrics.IncFailures()
		log.Error("Terrain generation failed.", "err", err)
		return Result{}, err
	}
	p.conf.Metrics.IncGenerations()
	p.conf.Metrics.AddCells(PassHeights, len(res.Heights.Values()))
	p.conf.Metrics.AddCells(PassSplat, res.Splatmap.Width()*res.Splatmap.Height())
	p.conf.Metrics.AddFallbacks(res.Splatmap.Fallbacks())
	for l, n := range res.Coverage {
		p.conf.Metrics.AddCoverage(biome.Layer(l), n)
	}
	log.Debug("Terrain generated.",
		"heights", res.HeightsDuration, "splat", res.SplatDuration,
		"sand", res.Coverage[biome.LayerSand], "grass", res.Coverage[biome.LayerGrass],
		"water", res.Coverage[biome.LayerWater], "snow", res.Coverage[biome.LayerSnow])
	return res, nil
}

func (p *Pipeline) generate(ctx context.Context, log *slog.Logger, res *Result) error {
	conf := p.conf
	if conf.Host == nil {
		return fmt.Errorf("no host: %w", errs.ErrInvalidConfiguration)
	}
	if err := conf.Dimensions.validate(); err != nil {
		return err
	}
	sampler, err := noise.New(conf.Noise)
	if err != nil {
		return fmt.Errorf("configure sampler: %w", err)
	}
	builder := heightfield.Builder{Scale: conf.Scale, Offset: conf.Offset, SeaLevel: conf.SeaLevel}
	if err := builder.Validate(); err != nil {
		return err
	}
	aw, ah, layers := conf.Host.AlphamapSize()
	classifier := biome.Classifier{
		Log:           log,
		Width:         aw,
		Height:        ah,
		Layers:        layers,
		Depth:         conf.Dimensions.Depth,
		Rule:          conf.Rule,
		Degenerate:    conf.Degenerate,
		FallbackLayer: conf.FallbackLayer,
		Workers:       conf.Workers,
	}
	if err := classifier.Validate(); err != nil {
		return err
	}

	if err := conf.Host.Resize(conf.Dimensions); err != nil {
		return fmt.Errorf("resize host: %w", err)
	}
	// Hosts may derive the alphamap from the terrain size, so it is only final after Resize.
	if aw, ah, layers := conf.Host.AlphamapSize(); aw != classifier.Width || ah != classifier.Height || layers != classifier.Layers {
		classifier.Width, classifier.Height, classifier.Layers = aw, ah, layers
		if err := classifier.Validate(); err != nil {
			return fmt.Errorf("alphamap after resize: %w", err)
		}
	}
	hw, hh := conf.Host.HeightmapSize()
	if ew, eh := conf.Dimensions.HeightmapSize(); hw != ew || hh != eh {
		return fmt.Errorf("host heightmap is %dx%d, expected %dx%d: %w", hw, hh, ew, eh, errs.ErrHostQuery)
	}

	start := time.Now()
	heights, err := builder.Build(hw, hh, sampler)
	if err != nil {
		return err
	}
	res.HeightsDuration = time.Since(start)
	if err := conf.Host.SetHeights(heights); err != nil {
		return fmt.Errorf("commit heights: %w", err)
	}
	committed, err := conf.Host.Heights()
	if err != nil {
		return fmt.Errorf("read back heights: %w: %w", errs.ErrHostQuery, err)
	}
	if committed.Width() != hw || committed.Height() != hh {
		return fmt.Errorf("host returned %dx%d heights, committed %dx%d: %w", committed.Width(), committed.Height(), hw, hh, errs.ErrHostQuery)
	}

	start = time.Now()
	splat, err := classifier.Classify(ctx, committed, conf.Host)
	if err != nil {
		return fmt.Errorf("classify splatmap: %w", err)
	}
	res.SplatDuration = time.Since(start)
	if err := conf.Host.SetAlphamaps(splat); err != nil {
		return fmt.Errorf("commit alphamaps: %w", err)
	}

	res.Heights, res.Splatmap = heights, splat
	for x := 0; x < splat.Width(); x++ {
		for y := 0; y < splat.Height(); y++ {
			if l := splat.Dominant(x, y); l.Index() < len(res.Coverage) {
				res.Coverage[l]++
			}
		}
	}
	return nil
}
