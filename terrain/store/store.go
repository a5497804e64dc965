// Package store persists generated terrain buffers in a LevelDB database, so that the most recent heightmap
// and splatmap survive the process that generated them.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/splatgen/terrain"
	"github.com/df-mc/splatgen/terrain/biome"
	"github.com/df-mc/splatgen/terrain/heightfield"
)

var (
	// ErrNotStored is returned when a buffer was never committed to the database.
	ErrNotStored = errors.New("buffer not stored")
	// ErrCorrupt is returned when a stored buffer fails to decode or its checksum does not match.
	ErrCorrupt = errors.New("stored buffer corrupt")
)

var (
	keyHeights   = []byte("heights")
	keyAlphamaps = []byte("alphamaps")
)

// version is written in the header of every payload and bumped when the layout changes.
const version = 1

// headerSize is the size of the version byte and three uint32 dimensions preceding the values of a payload.
const headerSize = 1 + 4*3

// DB is a LevelDB database holding the last committed height grid and splatmap.
type DB struct {
	ldb *leveldb.DB
}

// Open opens the database in dir, creating it if it does not yet exist.
func Open(dir string) (*DB, error) {
	ldb, err := leveldb.OpenFile(dir, &opt.Options{Compression: opt.SnappyCompression})
	if err != nil {
		return nil, fmt.Errorf("open terrain db: %w", err)
	}
	return &DB{ldb: ldb}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.ldb.Close()
}

// Wrap returns a terrain.Host that forwards every call to h and stores the buffers committed through it. A
// buffer is only stored once h has accepted it.
func (db *DB) Wrap(h terrain.Host) terrain.Host {
	return recorder{Host: h, db: db}
}

// PutHeights stores g, replacing any grid stored before. Values are stored with float32 precision.
func (db *DB) PutHeights(g *heightfield.Grid) error {
	return db.put(keyHeights, encode(g.Width(), g.Height(), 1, g.Values()))
}

// PutAlphamaps stores m, replacing any splatmap stored before. Weights are stored with float32 precision.
func (db *DB) PutAlphamaps(m *biome.Splatmap) error {
	return db.put(keyAlphamaps, encode(m.Width(), m.Height(), m.Layers(), m.Values()))
}

// Heights reads back the stored height grid.
func (db *DB) Heights() (*heightfield.Grid, error) {
	w, h, _, values, err := db.get(keyHeights)
	if err != nil {
		return nil, fmt.Errorf("read heights: %w", err)
	}
	g, err := heightfield.NewGrid(w, h)
	if err != nil {
		return nil, fmt.Errorf("read heights: %w: %w", ErrCorrupt, err)
	}
	copy(g.Values(), values)
	return g, nil
}

// Alphamaps reads back the stored splatmap.
func (db *DB) Alphamaps() (*biome.Splatmap, error) {
	w, h, layers, values, err := db.get(keyAlphamaps)
	if err != nil {
		return nil, fmt.Errorf("read alphamaps: %w", err)
	}
	m, err := biome.NewSplatmap(w, h, layers)
	if err != nil {
		return nil, fmt.Errorf("read alphamaps: %w: %w", ErrCorrupt, err)
	}
	copy(m.Values(), values)
	return m, nil
}

func (db *DB) put(key, payload []byte) error {
	if err := db.ldb.Put(key, payload, nil); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (db *DB) get(key []byte) (w, h, layers int, values []float64, err error) {
	payload, err := db.ldb.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, 0, 0, nil, ErrNotStored
	} else if err != nil {
		return 0, 0, 0, nil, err
	}
	return decode(payload)
}

// encode lays out a payload as a header, the values as little-endian float32 and an xxhash checksum of
// everything before it.
func encode(w, h, layers int, values []float64) []byte {
	b := make([]byte, headerSize, headerSize+len(values)*4+8)
	b[0] = version
	binary.LittleEndian.PutUint32(b[1:], uint32(w))
	binary.LittleEndian.PutUint32(b[5:], uint32(h))
	binary.LittleEndian.PutUint32(b[9:], uint32(layers))
	for _, v := range values {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(v)))
	}
	return binary.LittleEndian.AppendUint64(b, xxhash.Sum64(b))
}

func decode(b []byte) (w, h, layers int, values []float64, err error) {
	if len(b) < headerSize+8 {
		return 0, 0, 0, nil, fmt.Errorf("payload of %d bytes too short: %w", len(b), ErrCorrupt)
	}
	body, sum := b[:len(b)-8], binary.LittleEndian.Uint64(b[len(b)-8:])
	if xxhash.Sum64(body) != sum {
		return 0, 0, 0, nil, fmt.Errorf("checksum mismatch: %w", ErrCorrupt)
	}
	if body[0] != version {
		return 0, 0, 0, nil, fmt.Errorf("unsupported payload version %d: %w", body[0], ErrCorrupt)
	}
	w = int(binary.LittleEndian.Uint32(body[1:]))
	h = int(binary.LittleEndian.Uint32(body[5:]))
	layers = int(binary.LittleEndian.Uint32(body[9:]))

	data := body[headerSize:]
	if n := w * h * layers; n <= 0 || len(data) != n*4 {
		return 0, 0, 0, nil, fmt.Errorf("%dx%dx%d values in %d bytes: %w", w, h, layers, len(data), ErrCorrupt)
	}
	values = make([]float64, len(data)/4)
	for i := range values {
		values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return w, h, layers, values, nil
}

// recorder is a terrain.Host storing the buffers committed to the host it embeds.
type recorder struct {
	terrain.Host
	db *DB
}

// SetHeights commits g to the host and stores the heights the host reports back, which may have been clamped
// or quantised.
func (r recorder) SetHeights(g *heightfield.Grid) error {
	if err := r.Host.SetHeights(g); err != nil {
		return err
	}
	committed, err := r.Host.Heights()
	if err != nil {
		return fmt.Errorf("read back committed heights: %w", err)
	}
	return r.db.PutHeights(committed)
}

// SetAlphamaps ...
func (r recorder) SetAlphamaps(m *biome.Splatmap) error {
	if err := r.Host.SetAlphamaps(m); err != nil {
		return err
	}
	return r.db.PutAlphamaps(m)
}
