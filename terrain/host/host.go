// Package host implements an in-memory terrain host. Terrain keeps committed heights and splatmaps and answers
// surface queries the way engine terrains do: normals are interpolated between vertices and steepness is the
// angle between the surface and the horizontal plane.
package host

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/df-mc/splatgen/internal/mathx"
	"github.com/df-mc/splatgen/terrain"
	"github.com/df-mc/splatgen/terrain/biome"
	"github.com/df-mc/splatgen/terrain/heightfield"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrNoHeights is returned by queries made before heights were committed.
var ErrNoHeights = errors.New("no heights committed")

// Terrain is an in-memory terrain. The zero value is not usable: Terrains must be created with New. Terrain is
// safe for concurrent use.
type Terrain struct {
	mu sync.RWMutex

	dims    terrain.Dimensions
	alpha   [2]int
	heights *heightfield.Grid
	normals []mgl64.Vec3
	splat   *biome.Splatmap
}

// New creates a Terrain with a square alphamap of the resolution passed and biome.LayerCount layers.
func New(alphamapResolution int) *Terrain {
	return &Terrain{alpha: [2]int{alphamapResolution, alphamapResolution}}
}

// Resize applies new dimensions to the terrain and discards committed heights.
func (t *Terrain) Resize(d terrain.Dimensions) error {
	if d.Width <= 0 || d.Height <= 0 || !(d.Depth > 0) {
		return fmt.Errorf("resize to %+v: %w", d, terrain.ErrInvalidConfiguration)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dims = d
	t.heights, t.normals = nil, nil
	return nil
}

// Dimensions returns the current dimensions of the terrain.
func (t *Terrain) Dimensions() terrain.Dimensions {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dims
}

// HeightmapSize ...
func (t *Terrain) HeightmapSize() (width, height int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dims.HeightmapSize()
}

// AlphamapSize ...
func (t *Terrain) AlphamapSize() (width, height, layers int) {
	return t.alpha[0], t.alpha[1], biome.LayerCount
}

// SetHeights stores a copy of g, clamping every height to [0, 1], and recomputes vertex normals.
func (t *Terrain) SetHeights(g *heightfield.Grid) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, h := t.dims.HeightmapSize()
	if g.Width() != w || g.Height() != h {
		return fmt.Errorf("heights are %dx%d, terrain expects %dx%d", g.Width(), g.Height(), w, h)
	}
	heights := g.Clone()
	for i, v := range heights.Values() {
		heights.Values()[i] = mathx.Clamp01(v)
	}
	t.heights = heights
	t.normals = vertexNormals(heights, t.dims.Depth)
	return nil
}

// Heights returns a copy of the committed heights.
func (t *Terrain) Heights() (*heightfield.Grid, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.heights == nil {
		return nil, ErrNoHeights
	}
	return t.heights.Clone(), nil
}

// SetAlphamaps stores m as the splatmap of the terrain.
func (t *Terrain) SetAlphamaps(m *biome.Splatmap) error {
	if m.Width() != t.alpha[0] || m.Height() != t.alpha[1] || m.Layers() != biome.LayerCount {
		return fmt.Errorf("splatmap is %dx%dx%d, terrain expects %dx%dx%d", m.Width(), m.Height(), m.Layers(), t.alpha[0], t.alpha[1], biome.LayerCount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.splat = m
	return nil
}

// Alphamaps returns the committed splatmap, or nil if none was committed.
func (t *Terrain) Alphamaps() *biome.Splatmap {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.splat
}

// HeightAt returns the world height at normalised coordinates, interpolated bilinearly between vertices.
func (t *Terrain) HeightAt(x01, y01 float64) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.heights == nil {
		return 0, ErrNoHeights
	}
	x0, y0, x1, y1, tx, ty := t.cell(x01, y01)
	g := t.heights
	top := mathx.Lerp(g.At(x0, y0), g.At(x1, y0), tx)
	bottom := mathx.Lerp(g.At(x0, y1), g.At(x1, y1), tx)
	return mathx.Lerp(top, bottom, ty) * t.dims.Depth, nil
}

// Normal returns the unit surface normal at normalised coordinates, interpolated bilinearly between vertex
// normals. Z points up.
func (t *Terrain) Normal(x01, y01 float64) (mgl64.Vec3, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.heights == nil {
		return mgl64.Vec3{}, ErrNoHeights
	}
	return t.normal(x01, y01), nil
}

// Steepness returns the angle in degrees between the surface at normalised coordinates and the horizontal
// plane.
func (t *Terrain) Steepness(x01, y01 float64) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.heights == nil {
		return 0, ErrNoHeights
	}
	up := mgl64.Vec3{0, 0, 1}
	return mgl64.RadToDeg(math.Acos(mathx.Clamp(t.normal(x01, y01).Dot(up), -1, 1))), nil
}

func (t *Terrain) normal(x01, y01 float64) mgl64.Vec3 {
	x0, y0, x1, y1, tx, ty := t.cell(x01, y01)
	h := t.heights.Height()
	n00, n10 := t.normals[x0*h+y0], t.normals[x1*h+y0]
	n01, n11 := t.normals[x0*h+y1], t.normals[x1*h+y1]

	top := n00.Mul(1 - tx).Add(n10.Mul(tx))
	bottom := n01.Mul(1 - tx).Add(n11.Mul(tx))
	n := top.Mul(1 - ty).Add(bottom.Mul(ty))
	if n.Len() == 0 {
		return mgl64.Vec3{0, 0, 1}
	}
	return n.Normalize()
}

// cell returns the vertices surrounding normalised coordinates and the interpolation factors between them.
func (t *Terrain) cell(x01, y01 float64) (x0, y0, x1, y1 int, tx, ty float64) {
	w, h := t.heights.Width(), t.heights.Height()
	fx := mathx.Clamp01(x01) * float64(w-1)
	fy := mathx.Clamp01(y01) * float64(h-1)
	x0, y0 = int(fx), int(fy)
	x1, y1 = min(x0+1, w-1), min(y0+1, h-1)
	return x0, y0, x1, y1, fx - float64(x0), fy - float64(y0)
}

// vertexNormals computes the normal of every vertex from central differences of the world heights. Vertices
// are one world unit apart.
func vertexNormals(g *heightfield.Grid, depth float64) []mgl64.Vec3 {
	w, h := g.Width(), g.Height()
	normals := make([]mgl64.Vec3, w*h)
	for x := 0; x < w; x++ {
		xl, xr := max(x-1, 0), min(x+1, w-1)
		for y := 0; y < h; y++ {
			yd, yu := max(y-1, 0), min(y+1, h-1)

			var dx, dy float64
			if xr != xl {
				dx = (g.At(xr, y) - g.At(xl, y)) * depth / float64(xr-xl)
			}
			if yu != yd {
				dy = (g.At(x, yu) - g.At(x, yd)) * depth / float64(yu-yd)
			}
			normals[x*h+y] = mgl64.Vec3{-dx, -dy, 1}.Normalize()
		}
	}
	return normals
}
