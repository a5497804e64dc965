package host_test

import (
	"errors"
	"math"
	"testing"

	"github.com/df-mc/splatgen/terrain"
	"github.com/df-mc/splatgen/terrain/biome"
	"github.com/df-mc/splatgen/terrain/heightfield"
	"github.com/df-mc/splatgen/terrain/host"
)

func rampTerrain(t *testing.T) *host.Terrain {
	t.Helper()
	h := host.New(8)
	if err := h.Resize(terrain.Dimensions{Width: 4, Height: 4, Depth: 4}); err != nil {
		t.Fatalf("resize: %v", err)
	}
	g, err := heightfield.NewGrid(5, 5)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			g.Set(x, y, float64(x)/4)
		}
	}
	if err := h.SetHeights(g); err != nil {
		t.Fatalf("set heights: %v", err)
	}
	return h
}

func TestTerrainRampSurface(t *testing.T) {
	t.Parallel()

	h := rampTerrain(t)
	for _, p := range [][2]float64{{0, 0}, {0.3, 0.7}, {0.5, 0.5}, {1, 1}} {
		s, err := h.Steepness(p[0], p[1])
		if err != nil {
			t.Fatalf("steepness: %v", err)
		}
		if math.Abs(s-45) > 1e-9 {
			t.Errorf("steepness at %v = %v, want 45", p, s)
		}
		n, err := h.Normal(p[0], p[1])
		if err != nil {
			t.Fatalf("normal: %v", err)
		}
		if math.Abs(n.X()+math.Sqrt2/2) > 1e-9 || math.Abs(n.Y()) > 1e-9 || math.Abs(n.Z()-math.Sqrt2/2) > 1e-9 {
			t.Errorf("normal at %v = %v", p, n)
		}
	}
	if v, _ := h.HeightAt(0.5, 0.2); math.Abs(v-2) > 1e-9 {
		t.Errorf("height at centre = %v, want 2", v)
	}
}

func TestTerrainFlatSurface(t *testing.T) {
	t.Parallel()

	h := host.New(4)
	if err := h.Resize(terrain.Dimensions{Width: 8, Height: 8, Depth: 20}); err != nil {
		t.Fatalf("resize: %v", err)
	}
	g, _ := heightfield.NewGrid(9, 9)
	if err := h.SetHeights(g); err != nil {
		t.Fatalf("set heights: %v", err)
	}
	n, _ := h.Normal(0.42, 0.17)
	s, _ := h.Steepness(0.42, 0.17)
	if math.Abs(n.Z()-1) > 1e-12 || s > 1e-5 {
		t.Fatalf("flat terrain: normal %v, steepness %v", n, s)
	}
}

func TestTerrainClampsAndCopiesHeights(t *testing.T) {
	t.Parallel()

	h := host.New(4)
	_ = h.Resize(terrain.Dimensions{Width: 1, Height: 1, Depth: 1})
	g, _ := heightfield.NewGrid(2, 2)
	g.Set(0, 0, -0.5)
	g.Set(1, 1, 1.5)
	if err := h.SetHeights(g); err != nil {
		t.Fatalf("set heights: %v", err)
	}
	g.Set(0, 1, 0.25)

	back, err := h.Heights()
	if err != nil {
		t.Fatalf("heights: %v", err)
	}
	if back.At(0, 0) != 0 || back.At(1, 1) != 1 || back.At(0, 1) != 0 {
		t.Fatalf("unexpected stored heights %v", back.Values())
	}
}

func TestTerrainRejectsMismatchedBuffers(t *testing.T) {
	t.Parallel()

	h := host.New(4)
	_ = h.Resize(terrain.Dimensions{Width: 4, Height: 4, Depth: 1})
	g, _ := heightfield.NewGrid(4, 4)
	if err := h.SetHeights(g); err == nil {
		t.Error("expected error committing 4x4 heights to a 5x5 heightmap")
	}
	m, _ := biome.NewSplatmap(4, 3, biome.LayerCount)
	if err := h.SetAlphamaps(m); err == nil {
		t.Error("expected error committing 4x3 splatmap to a 4x4 alphamap")
	}
	if _, err := h.Normal(0, 0); !errors.Is(err, host.ErrNoHeights) {
		t.Errorf("expected ErrNoHeights, got %v", err)
	}
	if err := h.Resize(terrain.Dimensions{Width: 0, Height: 4, Depth: 1}); !errors.Is(err, terrain.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}
