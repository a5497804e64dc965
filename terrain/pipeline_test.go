package terrain_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/df-mc/splatgen/terrain"
	"github.com/df-mc/splatgen/terrain/biome"
	"github.com/df-mc/splatgen/terrain/heightfield"
	"github.com/df-mc/splatgen/terrain/host"
	"github.com/df-mc/splatgen/terrain/noise"
	"github.com/go-gl/mathgl/mgl64"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubHost answers every surface query with fixed values and records the buffers committed to it.
type stubHost struct {
	alpha     [3]int
	normal    mgl64.Vec3
	steepness float64
	queryErr  error
	// zeroReadBack makes Heights report a grid of zeros instead of the committed heights.
	zeroReadBack bool

	mu      sync.Mutex
	dims    terrain.Dimensions
	heights *heightfield.Grid
	splat   *biome.Splatmap
	calls   []string
}

func newStubHost(alpha int) *stubHost {
	return &stubHost{alpha: [3]int{alpha, alpha, biome.LayerCount}, normal: mgl64.Vec3{0, 0, 1}}
}

func (h *stubHost) record(call string) {
	h.mu.Lock()
	h.calls = append(h.calls, call)
	h.mu.Unlock()
}

func (h *stubHost) Resize(d terrain.Dimensions) error {
	h.record("resize")
	h.dims = d
	return nil
}

func (h *stubHost) HeightmapSize() (int, int) { return h.dims.HeightmapSize() }

func (h *stubHost) AlphamapSize() (int, int, int) { return h.alpha[0], h.alpha[1], h.alpha[2] }

func (h *stubHost) SetHeights(g *heightfield.Grid) error {
	h.record("heights")
	h.heights = g
	return nil
}

func (h *stubHost) Heights() (*heightfield.Grid, error) {
	if h.zeroReadBack {
		return heightfield.NewGrid(h.heights.Width(), h.heights.Height())
	}
	return h.heights, nil
}

func (h *stubHost) SetAlphamaps(m *biome.Splatmap) error {
	h.record("alphamaps")
	h.splat = m
	return nil
}

func (h *stubHost) Normal(float64, float64) (mgl64.Vec3, error) { return h.normal, h.queryErr }

func (h *stubHost) Steepness(float64, float64) (float64, error) { return h.steepness, h.queryErr }

func baseConfig(h terrain.Host) terrain.Config {
	return terrain.Config{
		Log:        discard,
		Host:       h,
		Dimensions: terrain.Dimensions{Width: 4, Height: 4, Depth: 20},
		Noise:      noise.DefaultConfig(),
		Scale:      35,
	}
}

func TestGenerateZeroHeightsIsWater(t *testing.T) {
	t.Parallel()

	h := newStubHost(4)
	h.zeroReadBack = true
	res, err := baseConfig(h).New().Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Heights.Width() != 5 || res.Heights.Height() != 5 {
		t.Fatalf("heights are %dx%d, want 5x5", res.Heights.Width(), res.Heights.Height())
	}
	want := []float64{0, 0, 1, 0}
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			w := h.splat.Weights(x, y)
			for i := range want {
				if w[i] != want[i] {
					t.Fatalf("texel (%d, %d) = %v, want %v", x, y, w, want)
				}
			}
		}
	}
	if res.Coverage[biome.LayerWater] != 16 {
		t.Errorf("water coverage = %d, want 16", res.Coverage[biome.LayerWater])
	}
	if got := h.calls; len(got) != 3 || got[0] != "resize" || got[1] != "heights" || got[2] != "alphamaps" {
		t.Errorf("unexpected host calls %v", got)
	}
}

func TestGenerateContinuousFlatnessDominates(t *testing.T) {
	t.Parallel()

	h := newStubHost(16)
	conf := baseConfig(h)
	conf.Dimensions = terrain.Dimensions{Width: 32, Height: 32, Depth: 20}
	conf.Noise.Type = noise.Value
	conf.Rule = biome.DefaultContinuous()

	if _, err := conf.New().Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			w := h.splat.Weights(x, y)
			for l, v := range w {
				if biome.Layer(l) != biome.LayerWater && v >= w[biome.LayerWater] {
					t.Fatalf("texel (%d, %d): layer %v weight %v not below flatness weight in %v", x, y, biome.Layer(l), v, w)
				}
			}
		}
	}
}

func TestGenerateContinuousFlatBasin(t *testing.T) {
	t.Parallel()

	h := newStubHost(4)
	h.zeroReadBack = true
	conf := baseConfig(h)
	conf.Rule = biome.DefaultContinuous()

	res, err := conf.New().Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			if l := h.splat.Dominant(x, y); l != biome.LayerWater {
				t.Fatalf("texel (%d, %d) at height 0 dominated by %v: %v", x, y, l, h.splat.Weights(x, y))
			}
		}
	}
	if res.Coverage[biome.LayerWater] != 16 {
		t.Errorf("water coverage = %d, want 16", res.Coverage[biome.LayerWater])
	}
}

// resizingHost reports an alphamap that tracks the terrain dimensions, like hosts deriving it from the size.
type resizingHost struct {
	*stubHost
}

func (r resizingHost) AlphamapSize() (int, int, int) {
	if r.dims.Width == 0 {
		return 2, 2, biome.LayerCount
	}
	return r.dims.Width / 2, r.dims.Height / 2, biome.LayerCount
}

func TestGenerateAlphamapSizeAfterResize(t *testing.T) {
	t.Parallel()

	h := resizingHost{stubHost: newStubHost(0)}
	conf := baseConfig(h)
	conf.Dimensions = terrain.Dimensions{Width: 12, Height: 8, Depth: 20}

	res, err := conf.New().Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Splatmap.Width() != 6 || res.Splatmap.Height() != 4 {
		t.Fatalf("splatmap is %dx%d, want 6x4", res.Splatmap.Width(), res.Splatmap.Height())
	}
}

func TestGenerateIdempotent(t *testing.T) {
	t.Parallel()

	for _, kind := range []biome.RuleKind{biome.RuleThreshold, biome.RuleContinuous} {
		h := host.New(32)
		conf := baseConfig(h)
		conf.Dimensions = terrain.Dimensions{Width: 48, Height: 40, Depth: 60}
		conf.SeaLevel = 0.5
		conf.Rule, _ = biome.DefaultRule(kind)
		conf.Workers = 3
		p := conf.New()

		first, err := p.Generate(context.Background())
		if err != nil {
			t.Fatalf("%v: generate: %v", kind, err)
		}
		second, err := p.Generate(context.Background())
		if err != nil {
			t.Fatalf("%v: generate: %v", kind, err)
		}
		if first.Heights.Checksum() != second.Heights.Checksum() {
			t.Errorf("%v: heights differ between generations", kind)
		}
		if first.Splatmap.Checksum() != second.Splatmap.Checksum() || h.Alphamaps().Checksum() != second.Splatmap.Checksum() {
			t.Errorf("%v: splatmaps differ between generations", kind)
		}
		if first.ID == second.ID {
			t.Errorf("%v: generations share an id", kind)
		}
	}
}

func TestGenerateReconfigure(t *testing.T) {
	t.Parallel()

	h := host.New(16)
	p := baseConfig(h).New()
	first, err := p.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	n := noise.DefaultConfig()
	n.Seed = 99
	p.SetNoise(n)
	p.SetDimensions(terrain.Dimensions{Width: 8, Height: 6, Depth: 20})
	p.SetRule(nil)

	second, err := p.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if second.Heights.Width() != 9 || second.Heights.Height() != 7 {
		t.Fatalf("heights are %dx%d after resize, want 9x7", second.Heights.Width(), second.Heights.Height())
	}
	if first.Heights.Checksum() == second.Heights.Checksum() {
		t.Error("reconfigured generation produced the same heights")
	}
	if p.Config().Noise.Seed != 99 {
		t.Errorf("config seed = %d, want 99", p.Config().Noise.Seed)
	}
}

func TestGenerateInvalidConfigTouchesNothing(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*terrain.Config, *stubHost){
		"width":   func(c *terrain.Config, _ *stubHost) { c.Dimensions.Width = 0 },
		"height":  func(c *terrain.Config, _ *stubHost) { c.Dimensions.Height = -3 },
		"depth":   func(c *terrain.Config, _ *stubHost) { c.Dimensions.Depth = 0 },
		"noise":   func(c *terrain.Config, _ *stubHost) { c.Noise.Type = noise.Cellular + 4 },
		"octaves": func(c *terrain.Config, _ *stubHost) { c.Noise.Octaves = -1 },
		"sea":     func(c *terrain.Config, _ *stubHost) { c.SeaLevel = 1 },
		"layers":  func(_ *terrain.Config, h *stubHost) { h.alpha[2] = 3 },
		"alpha":   func(_ *terrain.Config, h *stubHost) { h.alpha[0] = 0 },
		"bounds":  func(c *terrain.Config, _ *stubHost) { c.Rule = biome.Threshold{SandBelow: 1, GrassBelow: 0.5} },
	}
	for name, mutate := range cases {
		h := newStubHost(4)
		conf := baseConfig(h)
		mutate(&conf, h)

		m := terrain.NewMetrics()
		conf.Metrics = m
		_, err := conf.New().Generate(context.Background())
		if !errors.Is(err, terrain.ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration, got %v", name, err)
		}
		if len(h.calls) != 0 {
			t.Errorf("%s: host was touched: %v", name, h.calls)
		}
		if s := m.Snapshot(); s.Failures != 1 || s.Generations != 0 {
			t.Errorf("%s: metrics %+v", name, s)
		}
	}

	if _, err := (terrain.Config{Log: discard}).New().Generate(context.Background()); !errors.Is(err, terrain.ErrInvalidConfiguration) {
		t.Errorf("no host: expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestGenerateHostQueryFailure(t *testing.T) {
	t.Parallel()

	h := newStubHost(4)
	hostErr := errors.New("terrain collider missing")
	h.queryErr = hostErr
	_, err := baseConfig(h).New().Generate(context.Background())
	if !errors.Is(err, terrain.ErrHostQuery) || !errors.Is(err, hostErr) {
		t.Fatalf("expected ErrHostQuery wrapping the host error, got %v", err)
	}
	if h.splat != nil {
		t.Error("splatmap committed despite failure")
	}
}

func TestGenerateDegenerate(t *testing.T) {
	t.Parallel()

	h := newStubHost(4)
	h.normal, h.steepness = mgl64.Vec3{1, 0, 0}, 90
	conf := baseConfig(h)
	conf.Rule = biome.Continuous{}
	conf.Metrics = terrain.NewMetrics()

	// Heights read back at the maximum on a vertical surface leave every weight at zero.
	hi := &fixedHeights{stubHost: h, value: 1}
	conf.Host = hi
	if _, err := conf.New().Generate(context.Background()); !errors.Is(err, terrain.ErrDegenerateWeights) {
		t.Fatalf("expected ErrDegenerateWeights, got %v", err)
	}

	conf.Degenerate, conf.FallbackLayer = biome.DegenerateFallback, biome.LayerSnow
	res, err := conf.New().Generate(context.Background())
	if err != nil {
		t.Fatalf("generate with fallback: %v", err)
	}
	if res.Splatmap.Fallbacks() != 16 || res.Coverage[biome.LayerSnow] != 16 {
		t.Errorf("fallbacks = %d, snow coverage = %d", res.Splatmap.Fallbacks(), res.Coverage[biome.LayerSnow])
	}
	if s := conf.Metrics.Snapshot(); s.Fallbacks != 16 || s.Coverage[biome.LayerSnow] != 16 || s.Cells[terrain.PassSplat] != 16 || s.Cells[terrain.PassHeights] != 25 {
		t.Errorf("metrics %+v", s)
	}
}

// fixedHeights reads back a constant height regardless of what was committed.
type fixedHeights struct {
	*stubHost
	value float64
}

func (f *fixedHeights) Heights() (*heightfield.Grid, error) {
	g, err := heightfield.NewGrid(f.heights.Width(), f.heights.Height())
	if err != nil {
		return nil, err
	}
	for i := range g.Values() {
		g.Values()[i] = f.value
	}
	return g, nil
}

func TestGenerateConcurrentCallsSerialise(t *testing.T) {
	t.Parallel()

	h := host.New(16)
	p := baseConfig(h).New()
	var wg sync.WaitGroup
	sums := make([]uint64, 4)
	for i := range sums {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.Generate(context.Background())
			if err != nil {
				t.Errorf("generate: %v", err)
				return
			}
			sums[i] = res.Splatmap.Checksum()
		}()
	}
	wg.Wait()
	for _, s := range sums[1:] {
		if s != sums[0] {
			t.Fatal("concurrent generations produced different splatmaps")
		}
	}
}
