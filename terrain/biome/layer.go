// Package biome classifies terrain into texture layers and builds the splatmap a terrain host blends its
// textures with.
package biome

import (
	"fmt"
	"strings"

	"github.com/df-mc/splatgen/terrain/errs"
)

// Layer identifies one of the texture layers of a splatmap. The set of layers is fixed.
type Layer uint8

const (
	LayerSand Layer = iota
	LayerGrass
	LayerWater
	LayerSnow
)

// LayerCount is the number of texture layers every splatmap holds.
const LayerCount = 4

// Layers returns all layers in index order.
func Layers() []Layer {
	return []Layer{LayerSand, LayerGrass, LayerWater, LayerSnow}
}

// Index returns the position of the layer in a weight vector.
func (l Layer) Index() int {
	return int(l)
}

// String ...
func (l Layer) String() string {
	switch l {
	case LayerSand:
		return "sand"
	case LayerGrass:
		return "grass"
	case LayerWater:
		return "water"
	case LayerSnow:
		return "snow"
	}
	return fmt.Sprintf("Layer(%d)", uint8(l))
}

// ParseLayer parses the name of a layer.
func ParseLayer(name string) (Layer, error) {
	for _, l := range Layers() {
		if strings.EqualFold(strings.TrimSpace(name), l.String()) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("layer %q: %w", name, errs.ErrInvalidConfiguration)
}
