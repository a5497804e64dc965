package heightfield

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/splatgen/terrain/errs"
)

// Grid is a dense two-dimensional grid of normalised elevation values. Values are stored x-major, so a
// column of constant x is contiguous in memory.
type Grid struct {
	width, height int
	values        []float64
}

// NewGrid allocates a zeroed grid of width by height cells.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid size %dx%d: %w", width, height, errs.ErrInvalidConfiguration)
	}
	return &Grid{width: width, height: height, values: make([]float64, width*height)}, nil
}

// Width returns the number of cells along the x axis.
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of cells along the y axis.
func (g *Grid) Height() int {
	return g.height
}

// At returns the value at (x, y). At panics if the position is outside the grid.
func (g *Grid) At(x, y int) float64 {
	return g.values[g.index(x, y)]
}

// Set stores v at (x, y).
func (g *Grid) Set(x, y int, v float64) {
	g.values[g.index(x, y)] = v
}

// Values returns the backing slice of the grid in x-major order. Modifying it modifies the grid.
func (g *Grid) Values() []float64 {
	return g.values
}

// Nearest returns the value of the cell nearest to the normalised coordinates (x01, y01). Coordinates are
// mapped onto the index space by rounding half to even and clamped to the grid.
func (g *Grid) Nearest(x01, y01 float64) float64 {
	x := clampIndex(math.RoundToEven(x01*float64(g.width)), g.width)
	y := clampIndex(math.RoundToEven(y01*float64(g.height)), g.height)
	return g.values[x*g.height+y]
}

// Range returns the lowest and highest value in the grid.
func (g *Grid) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.values {
		lo, hi = min(lo, v), max(hi, v)
	}
	return lo, hi
}

// Checksum returns a hash of the grid's dimensions and the exact bits of every value. Two grids have equal
// checksums if they are bit-identical.
func (g *Grid) Checksum() uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(g.width))
	binary.LittleEndian.PutUint32(buf[4:], uint32(g.height))
	_, _ = d.Write(buf[:])
	for _, v := range g.values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	values := make([]float64, len(g.values))
	copy(values, g.values)
	return &Grid{width: g.width, height: g.height, values: values}
}

func (g *Grid) index(x, y int) int {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		panic(fmt.Sprintf("heightfield: position (%d, %d) outside %dx%d grid", x, y, g.width, g.height))
	}
	return x*g.height + y
}

func clampIndex(v float64, n int) int {
	if v < 0 {
		return 0
	}
	if i := int(v); i < n {
		return i
	}
	return n - 1
}
