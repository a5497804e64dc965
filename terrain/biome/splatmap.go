package biome

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/splatgen/terrain/errs"
)

// Splatmap holds a normalised weight vector per texel. It is indexed [x][y][layer] and stored in that order.
type Splatmap struct {
	width, height, layers int
	weights               []float64

	fallbacks int
}

// NewSplatmap allocates a zeroed splatmap.
func NewSplatmap(width, height, layers int) (*Splatmap, error) {
	if width <= 0 || height <= 0 || layers <= 0 {
		return nil, fmt.Errorf("splatmap size %dx%dx%d: %w", width, height, layers, errs.ErrInvalidConfiguration)
	}
	return &Splatmap{width: width, height: height, layers: layers, weights: make([]float64, width*height*layers)}, nil
}

// Width returns the number of texels along the x axis.
func (m *Splatmap) Width() int { return m.width }

// Height returns the number of texels along the y axis.
func (m *Splatmap) Height() int { return m.height }

// Layers returns the number of layers per texel.
func (m *Splatmap) Layers() int { return m.layers }

// At returns the weight of layer l at texel (x, y).
func (m *Splatmap) At(x, y int, l Layer) float64 {
	return m.Weights(x, y)[l]
}

// Weights returns the weight vector of texel (x, y). The slice aliases the splatmap.
func (m *Splatmap) Weights(x, y int) []float64 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		panic(fmt.Sprintf("biome: texel (%d, %d) outside %dx%d splatmap", x, y, m.width, m.height))
	}
	i := (x*m.height + y) * m.layers
	return m.weights[i : i+m.layers : i+m.layers]
}

// Dominant returns the layer with the highest weight at texel (x, y).
func (m *Splatmap) Dominant(x, y int) Layer {
	return Dominant(m.Weights(x, y))
}

// Values returns the backing slice of the splatmap in [x][y][layer] order.
func (m *Splatmap) Values() []float64 {
	return m.weights
}

// Fallbacks returns the number of texels whose weights were degenerate and that were assigned the fallback
// layer instead.
func (m *Splatmap) Fallbacks() int {
	return m.fallbacks
}

// Checksum returns a hash of the splatmap's dimensions and the exact bits of every weight.
func (m *Splatmap) Checksum() uint64 {
	d := xxhash.New()
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(m.width))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(m.height))
	binary.LittleEndian.PutUint32(buf[8:], uint32(m.layers))
	_, _ = d.Write(buf[:])
	for _, v := range m.weights {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(v))
		_, _ = d.Write(buf[:8])
	}
	return d.Sum64()
}
