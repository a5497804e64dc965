package terrain

import (
	"fmt"

	"github.com/df-mc/splatgen/terrain/biome"
	"github.com/df-mc/splatgen/terrain/errs"
	"github.com/df-mc/splatgen/terrain/heightfield"
)

// Dimensions describes the world-space size of a terrain.
type Dimensions struct {
	// Width and Height are the extent of the terrain along the x and y axes in world units. The heightmap of a
	// terrain has one more vertex than its extent along each axis.
	Width, Height int
	// Depth is the world height of a normalised height of 1.
	Depth float64
}

// HeightmapSize returns the number of heightmap vertices along each axis.
func (d Dimensions) HeightmapSize() (width, height int) {
	return d.Width + 1, d.Height + 1
}

func (d Dimensions) validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("terrain size %dx%d: %w", d.Width, d.Height, errs.ErrInvalidConfiguration)
	}
	if !(d.Depth > 0) {
		return fmt.Errorf("terrain depth %v must be positive: %w", d.Depth, errs.ErrInvalidConfiguration)
	}
	return nil
}

// HeightSink accepts a committed height grid. Implementations must not resample it: the grid always has the
// size reported by Host.HeightmapSize.
type HeightSink interface {
	SetHeights(g *heightfield.Grid) error
}

// AlphamapSink accepts a committed splatmap with the size reported by Host.AlphamapSize.
type AlphamapSink interface {
	SetAlphamaps(m *biome.Splatmap) error
}

// Host is the engine-side terrain a Pipeline generates into. It stores committed buffers and answers surface
// queries about the committed heights.
type Host interface {
	HeightSink
	AlphamapSink
	biome.Surface

	// Resize applies new terrain dimensions. Previously committed heights may be discarded.
	Resize(d Dimensions) error
	// HeightmapSize returns the size of the height grid the host accepts.
	HeightmapSize() (width, height int)
	// AlphamapSize returns the size of the splatmap the host accepts and its number of layers.
	AlphamapSize() (width, height, layers int)
	// Heights reads back the committed heights as the host stores them.
	Heights() (*heightfield.Grid, error)
}
