package noise

import (
	"encoding/binary"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/splatgen/internal/mathx"
	"github.com/ojrac/opensimplex-go"
)

// source is a single octave of base noise returning values roughly within [-1, 1].
type source interface {
	eval(x, y float64) float64
}

func newSource(t Type, seed int64) source {
	switch t {
	case OpenSimplex2:
		return simplexSource{n: opensimplex.New(seed)}
	case Value:
		return valueSource{seed: seed}
	case Cellular:
		return cellularSource{seed: seed}
	default:
		// A single octave: fractal layering is done by the Sampler so that every type is layered alike.
		return perlinSource{p: perlin.NewPerlin(2, 2, 1, seed)}
	}
}

// perlinSource wraps classic Perlin noise. Its raw output peaks at about ±√½, so it is scaled up to cover
// [-1, 1].
type perlinSource struct {
	p *perlin.Perlin
}

func (s perlinSource) eval(x, y float64) float64 {
	return s.p.Noise2D(x, y) * math.Sqrt2
}

type simplexSource struct {
	n opensimplex.Noise
}

func (s simplexSource) eval(x, y float64) float64 {
	return s.n.Eval2(x, y)
}

type valueSource struct {
	seed int64
}

func (s valueSource) eval(x, y float64) float64 {
	fx, fy := math.Floor(x), math.Floor(y)
	x0, y0 := int32(fx), int32(fy)
	tx, ty := quintic(x-fx), quintic(y-fy)

	top := mathx.Lerp(s.at(x0, y0), s.at(x0+1, y0), tx)
	bottom := mathx.Lerp(s.at(x0, y0+1), s.at(x0+1, y0+1), tx)
	return mathx.Lerp(top, bottom, ty)
}

func (s valueSource) at(x, y int32) float64 {
	return unit(latticeHash(s.seed, x, y))*2 - 1
}

// cellularJitter is the fraction of a cell a feature point may be placed in. Keeping points away from cell
// borders guarantees the nearest point is found within the 3x3 neighbourhood.
const cellularJitter = 0.8

type cellularSource struct {
	seed int64
}

func (s cellularSource) eval(x, y float64) float64 {
	fx, fy := math.Floor(x), math.Floor(y)
	cx, cy := int32(fx), int32(fy)

	best := math.MaxFloat64
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			h := latticeHash(s.seed, cx+dx, cy+dy)
			px := float64(cx+dx) + (1-cellularJitter)/2 + cellularJitter*float64(uint32(h))/(1<<32)
			py := float64(cy+dy) + (1-cellularJitter)/2 + cellularJitter*float64(uint32(h>>32))/(1<<32)
			best = min(best, (px-x)*(px-x)+(py-y)*(py-y))
		}
	}
	return min(math.Sqrt(best), 1)*2 - 1
}

// latticeHash hashes an integer lattice point together with the seed.
func latticeHash(seed int64, x, y int32) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(seed))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(x))
	binary.LittleEndian.PutUint32(buf[12:], uint32(y))
	return xxhash.Sum64(buf[:])
}

// unit maps a hash to [0, 1).
func unit(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}

func quintic(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}
