// Package tile implements the engine's core Tile entity: an owning
// handle over one encoded MVT buffer plus a byte-range index into its
// layers, so the composite engine's byte-splice fast path can reuse a
// foreign layer's bytes without decoding them.
package tile

import (
	"fmt"

	"mvtengine/pkg/mvtengine/errs"
	"mvtengine/pkg/mvtengine/pbf"
	"mvtengine/pkg/mvtengine/projection"
)

const (
	// DefaultTileSize is the standard MVT extent-independent pixel size
	// used for buffer-margin math, matching the 4096-unit tile convention.
	DefaultTileSize = 4096
	// DefaultBufferSize is the default clip margin in tile-size pixels.
	DefaultBufferSize = 0

	fieldLayers = 3
)

// Tile is the engine's owning handle over one encoded vector tile. It
// keeps the raw encoded bytes for every layer so that a composite
// operation can splice a foreign layer's bytes in verbatim instead of
// fully decoding and re-encoding it.
type Tile struct {
	Z, X, Y    int
	TileSize   int
	BufferSize int

	buf        []byte
	order      []string
	layerIndex map[string][]byte
	painted    map[string]struct{}
	empty      map[string]struct{}
}

// New creates an empty tile at the given tile-pyramid coordinate.
func New(z, x, y int) (*Tile, error) {
	if err := projection.ValidTile(z, x, y); err != nil {
		return nil, err
	}
	return &Tile{
		Z: z, X: x, Y: y,
		TileSize:   DefaultTileSize,
		BufferSize: DefaultBufferSize,
		layerIndex: make(map[string][]byte),
		painted:    make(map[string]struct{}),
		empty:      make(map[string]struct{}),
	}, nil
}

// String renders the tile's pyramid coordinate as "z/x/y".
func (t *Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Clear discards all layer data, resetting the tile to empty while
// keeping its coordinate and size settings.
func (t *Tile) Clear() {
	t.buf = nil
	t.order = nil
	t.layerIndex = make(map[string][]byte)
	t.painted = make(map[string]struct{})
	t.empty = make(map[string]struct{})
}

// SetData replaces the tile's contents by indexing data as a fresh
// encoded buffer, discarding whatever the tile held before. On error the
// tile is left unchanged.
func (t *Tile) SetData(data []byte) error {
	staged := *t
	staged.Clear()
	if err := staged.AddData(data); err != nil {
		return err
	}
	*t = staged
	return nil
}

// AddData indexes every layer in data, appending new layer names to the
// tile's order. A layer name already present is kept as it is and the
// incoming same-named layer is skipped (first-writer-wins in AddData
// call order).
func (t *Tile) AddData(data []byte) error {
	r := pbf.NewReader(data)
	found := false
	for r.Next() {
		if r.Tag() != fieldLayers {
			r.Skip()
			continue
		}
		body := r.Bytes()
		if r.Err() != nil {
			break
		}
		name, err := peekLayerName(body)
		if err != nil {
			return err
		}
		if _, exists := t.layerIndex[name]; exists {
			found = true
			continue
		}
		t.order = append(t.order, name)
		t.layerIndex[name] = body
		if layerIsEmpty(body) {
			t.empty[name] = struct{}{}
		} else {
			t.painted[name] = struct{}{}
			delete(t.empty, name)
		}
		found = true
	}
	if err := r.Err(); err != nil {
		return err
	}
	if !found {
		return errs.New(errs.CorruptInput, "no layers found in tile data")
	}
	t.buf = data
	return nil
}

// Layer returns the raw encoded body of the named layer and whether it
// is present.
func (t *Tile) Layer(name string) ([]byte, bool) {
	body, ok := t.layerIndex[name]
	return body, ok
}

// Names returns layer names in the order they were added.
func (t *Tile) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// EmptyLayers returns the names of layers with zero features.
func (t *Tile) EmptyLayers() []string {
	return setKeys(t.empty)
}

// PaintedLayers returns the names of layers with at least one feature.
func (t *Tile) PaintedLayers() []string {
	return setKeys(t.painted)
}

func setKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Extent returns the tile's unbuffered Mercator bounding box.
func (t *Tile) Extent() (minX, minY, maxX, maxY float64) {
	return projection.TileBounds(t.Z, t.X, t.Y)
}

// BufferedExtent returns the tile's Mercator bounding box expanded by
// BufferSize pixels of margin at TileSize.
func (t *Tile) BufferedExtent() (minX, minY, maxX, maxY float64) {
	return projection.BufferedBounds(t.Z, t.X, t.Y, t.TileSize, t.BufferSize)
}

// RawBytes returns the last fully-assembled encoded tile buffer passed
// to SetData/AddData, or nil if the tile was only built layer-by-layer
// through AddLayer without ever observing a single combined buffer.
func (t *Tile) RawBytes() []byte { return t.buf }

// AddLayer registers an already-encoded layer body (as produced by
// codec.EncodeLayer) directly, without requiring a full tile buffer.
// Used by the codec and composite packages when assembling a tile from
// freshly-encoded layers rather than decoding an existing one.
func (t *Tile) AddLayer(name string, body []byte, painted bool) {
	if _, exists := t.layerIndex[name]; !exists {
		t.order = append(t.order, name)
	}
	t.layerIndex[name] = body
	if painted {
		t.painted[name] = struct{}{}
		delete(t.empty, name)
	} else {
		t.empty[name] = struct{}{}
		delete(t.painted, name)
	}
}

// Encode assembles the tile's layers, in Names() order, into one
// top-level MVT message by splicing each layer's raw body verbatim.
func (t *Tile) Encode() []byte {
	w := pbf.NewWriterCap(len(t.buf))
	for _, name := range t.order {
		w.AppendRawMessage(fieldLayers, t.layerIndex[name])
	}
	return w.Bytes()
}

const (
	layerFieldName     = 1
	layerFieldFeatures = 2
)

// peekLayerName extracts a layer's name field without decoding its
// features, the structural-only scan validate.Info also performs.
func peekLayerName(body []byte) (string, error) {
	r := pbf.NewReader(body)
	var name string
	haveName := false
	for r.Next() {
		if r.Tag() == layerFieldName {
			name = r.String()
			haveName = true
		} else {
			r.Skip()
		}
	}
	if err := r.Err(); err != nil {
		return "", err
	}
	if !haveName {
		return "", errs.New(errs.CorruptInput, "layer missing name field")
	}
	return name, nil
}

// layerIsEmpty reports whether a layer body contains any feature (field
// 2) entries.
func layerIsEmpty(body []byte) bool {
	r := pbf.NewReader(body)
	for r.Next() {
		if r.Tag() == layerFieldFeatures {
			return false
		}
		r.Skip()
	}
	return true
}
