package terrain

import (
	"sync"

	"github.com/brentp/intintmap"
	"github.com/df-mc/splatgen/terrain/biome"
)

// Pass identifies a stage of generation for metrics.
type Pass uint8

const (
	PassHeights Pass = iota
	PassSplat
)

// Metrics tracks counters over every generation of the pipelines it is passed to. A nil *Metrics discards
// everything. The zero value is ready to use.
type Metrics struct {
	mu sync.Mutex

	generations uint64
	failures    uint64
	cells       map[Pass]uint64
	fallbacks   uint64
	coverage    *intintmap.Map
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{
		cells:    make(map[Pass]uint64),
		coverage: intintmap.New(biome.LayerCount, 0.6),
	}
}

// IncGenerations increments the number of completed generations.
func (m *Metrics) IncGenerations() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.generations++
	m.mu.Unlock()
}

// IncFailures increments the number of generations that returned an error.
func (m *Metrics) IncFailures() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.failures++
	m.mu.Unlock()
}

// AddCells adds the number of cells processed by a pass.
func (m *Metrics) AddCells(p Pass, n int) {
	if m == nil || n == 0 {
		return
	}
	m.mu.Lock()
	m.alloc()
	m.cells[p] += uint64(n)
	m.mu.Unlock()
}

// AddFallbacks adds the number of texels that received the fallback layer.
func (m *Metrics) AddFallbacks(n int) {
	if m == nil || n == 0 {
		return
	}
	m.mu.Lock()
	m.fallbacks += uint64(n)
	m.mu.Unlock()
}

// AddCoverage adds n texels to the count of texels dominated by layer l.
func (m *Metrics) AddCoverage(l biome.Layer, n int) {
	if m == nil || n == 0 {
		return
	}
	m.mu.Lock()
	m.alloc()
	v, _ := m.coverage.Get(int64(l))
	m.coverage.Put(int64(l), v+int64(n))
	m.mu.Unlock()
}

// alloc allocates the maps of a zero Metrics. m.mu must be held.
func (m *Metrics) alloc() {
	if m.cells == nil {
		m.cells = make(map[Pass]uint64)
	}
	if m.coverage == nil {
		m.coverage = intintmap.New(biome.LayerCount, 0.6)
	}
}

// MetricsSnapshot is a point-in-time copy of a Metrics registry.
type MetricsSnapshot struct {
	Generations uint64
	Failures    uint64
	Cells       map[Pass]uint64
	Fallbacks   uint64
	Coverage    map[biome.Layer]uint64
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{Cells: make(map[Pass]uint64), Coverage: make(map[biome.Layer]uint64)}
	if m == nil {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s.Generations, s.Failures, s.Fallbacks = m.generations, m.failures, m.fallbacks
	for p, n := range m.cells {
		s.Cells[p] = n
	}
	for _, l := range biome.Layers() {
		if m.coverage == nil {
			break
		}
		if v, ok := m.coverage.Get(int64(l)); ok {
			s.Coverage[l] = uint64(v)
		}
	}
	return s
}
