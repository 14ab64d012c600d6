// Package mvtengine is the engine's public facade: a single Tile type
// that wires together projection, compression, the PBF codec, geometry
// operations, the composite engine, query engine and validator behind
// the operation set a caller actually needs.
package mvtengine

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"mvtengine/pkg/mvtengine/codec"
	"mvtengine/pkg/mvtengine/compress"
	"mvtengine/pkg/mvtengine/composite"
	"mvtengine/pkg/mvtengine/errs"
	"mvtengine/pkg/mvtengine/geom"
	"mvtengine/pkg/mvtengine/geomops"
	"mvtengine/pkg/mvtengine/pbf"
	"mvtengine/pkg/mvtengine/projection"
	"mvtengine/pkg/mvtengine/query"
	"mvtengine/pkg/mvtengine/tile"
	"mvtengine/pkg/mvtengine/validate"
)

// Tile is the facade over the engine's tile entity.
type Tile struct {
	inner *tile.Tile
}

// New constructs an empty tile at (z, x, y) with the given tile size and
// buffer size (in pixels).
func New(z, x, y, tileSize, bufferSize int) (*Tile, error) {
	t, err := tile.New(z, x, y)
	if err != nil {
		return nil, err
	}
	if tileSize > 0 {
		t.TileSize = tileSize
	}
	if bufferSize > 0 {
		t.BufferSize = bufferSize
	}
	return &Tile{inner: t}, nil
}

// DataOptions governs how SetData/AddData interpret an incoming buffer.
type DataOptions struct {
	Upgrade bool
}

// SetData replaces the tile's buffer with data (transparently inflating
// gzip/zlib framing), clearing every existing layer index first.
func (t *Tile) SetData(data []byte, opts DataOptions) error {
	raw, err := compress.Inflate(data)
	if err != nil {
		return err
	}
	if err := validateLayers(raw, opts.Upgrade); err != nil {
		return err
	}
	return t.inner.SetData(raw)
}

// AddData appends data's layers onto the tile without clearing what's
// already present, first-writer-wins on name conflicts (the caller's
// prior AddData/AddLayer calls take precedence).
func (t *Tile) AddData(data []byte, opts DataOptions) error {
	raw, err := compress.Inflate(data)
	if err != nil {
		return err
	}
	if err := validateLayers(raw, opts.Upgrade); err != nil {
		return err
	}
	return t.inner.AddData(raw)
}

// validateLayers decodes every layer in raw once up front so SetData/
// AddData fail atomically instead of partially mutating the tile: writes
// are staged and only committed once every layer in the incoming buffer
// is confirmed decodable.
func validateLayers(raw []byte, upgrade bool) error {
	r := pbf.NewReader(raw)
	for r.Next() {
		if r.Tag() != 3 {
			r.Skip()
			continue
		}
		body := r.Bytes()
		if r.Err() != nil {
			break
		}
		if _, err := codec.DecodeLayer(pbf.NewReader(body), codec.DecodeOptions{Upgrade: upgrade}); err != nil {
			return err
		}
	}
	return r.Err()
}

// AddGeoJSONOptions configures AddGeoJSON.
type AddGeoJSONOptions struct {
	SimplifyDistance float64
}

// AddGeoJSON re-encodes a WGS84 GeoJSON FeatureCollection as a new layer
// named layerName, projecting each feature into the tile's Mercator
// frame and quantizing to tile-local integer coordinates.
func (t *Tile) AddGeoJSON(data []byte, layerName string, opts AddGeoJSONOptions) error {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return errs.Wrap(errs.InvalidArgument, "invalid GeoJSON input", err)
	}
	extent := uint32(4096)
	layer := codec.LayerData{Name: layerName, Extent: extent, Version: 2}

	for _, gf := range fc.Features {
		g, err := geom.FromOrb(gf.Geometry)
		if err != nil {
			return err
		}
		projected, err := geomops.Reproject(g, projection.LonLatToMercator)
		if err != nil {
			return err
		}
		if opts.SimplifyDistance > 0 {
			projected = geomops.Simplify(projected, opts.SimplifyDistance)
		}
		local, err := geomops.Reproject(projected, func(p orb.Point) orb.Point {
			return projection.ToLocal(t.inner.Z, t.inner.X, t.inner.Y, extent, p)
		})
		if err != nil {
			return err
		}
		if local.Kind() == geom.KindPolygon || local.Kind() == geom.KindMultiPolygon {
			local = geomops.NormalizeRings(local)
		}
		gtype, err := geomTypeOf(local)
		if err != nil {
			return err
		}
		layer.Features = append(layer.Features, codec.Feature{
			Type:     gtype,
			Geometry: local,
			Tags:     gf.Properties,
		})
	}

	w := pbf.NewWriter()
	if err := codec.EncodeLayer(w, layer, codec.EncodeOptions{}); err != nil {
		return err
	}
	t.inner.AddLayer(layerName, w.Bytes(), len(layer.Features) > 0)
	return nil
}

func geomTypeOf(g geom.Geometry) (codec.GeomType, error) {
	switch g.Kind() {
	case geom.KindPoint, geom.KindMultiPoint:
		return codec.GeomPoint, nil
	case geom.KindLineString, geom.KindMultiLineString:
		return codec.GeomLineString, nil
	case geom.KindPolygon, geom.KindMultiPolygon:
		return codec.GeomPolygon, nil
	case geom.KindEmpty:
		return codec.GeomUnknown, nil
	default:
		return codec.GeomUnknown, errs.New(errs.GeometryError, "geometry kind has no MVT feature type equivalent")
	}
}

// AddImageLayerOptions configures AddImageLayer.
type AddImageLayerOptions struct {
	Format  codec.ImageFormat
	Scaling codec.ScalingMethod
}

// AddImageLayer attaches opaque image bytes as a raster feature in a new
// layer named layerName. The engine never decodes the pixels.
func (t *Tile) AddImageLayer(imageData []byte, layerName string, opts AddImageLayerOptions) error {
	if !codec.ValidImageFormat(opts.Format) {
		return errs.New(errs.InvalidArgument, "unrecognized image format")
	}
	if opts.Scaling != "" && !codec.ValidScalingMethod(opts.Scaling) {
		return errs.New(errs.InvalidArgument, "unrecognized scaling method")
	}
	layer := codec.LayerData{
		Name: layerName, Extent: uint32(t.inner.TileSize), Version: 2,
		Features: []codec.Feature{{
			Raster: &codec.Raster{Format: opts.Format, Scaling: opts.Scaling, Data: imageData},
		}},
	}
	w := pbf.NewWriter()
	if err := codec.EncodeLayer(w, layer, codec.EncodeOptions{}); err != nil {
		return errs.Wrap(errs.IoError, "failed to encode raster layer", err)
	}
	t.inner.AddLayer(layerName, w.Bytes(), true)
	return nil
}

// Composite merges sources onto t per composite.Options.
func (t *Tile) Composite(sources []*Tile, opts composite.Options) error {
	inner := make([]*tile.Tile, len(sources))
	for i, s := range sources {
		inner[i] = s.inner
	}
	return composite.Composite(t.inner, inner, opts)
}

// Query runs a single-point query against t, projecting (lon, lat) into
// the tile's local coordinate space first.
func (t *Tile) Query(lon, lat, tolerance float64, layer string) ([]query.Result, error) {
	merc := projection.LonLatToMercator(orb.Point{lon, lat})
	local := projection.ToLocal(t.inner.Z, t.inner.X, t.inner.Y, uint32(layerExtentOrDefault(t)), merc)
	return query.Query(t.inner, local[0], local[1], tolerance, layer)
}

// QueryMany runs a batched multi-point query against t.
func (t *Tile) QueryMany(points []orb.Point, tolerance float64, layer string, fields []string) (*query.MultiResult, error) {
	extent := uint32(layerExtentOrDefault(t))
	qp := make([]query.Point, len(points))
	for i, p := range points {
		merc := projection.LonLatToMercator(p)
		local := projection.ToLocal(t.inner.Z, t.inner.X, t.inner.Y, extent, merc)
		qp[i] = query.Point{X: local[0], Y: local[1]}
	}
	return query.QueryMany(t.inner, qp, tolerance, layer, fields)
}

func layerExtentOrDefault(t *Tile) int {
	for _, name := range t.inner.Names() {
		if body, ok := t.inner.Layer(name); ok {
			if decoded, err := codec.DecodeLayer(pbf.NewReader(body), codec.DecodeOptions{Upgrade: true}); err == nil {
				return int(decoded.Extent)
			}
		}
	}
	return 4096
}

// ToGeoJSON reprojects the named layer (or every layer if name is "")
// back to WGS84 and serializes it as a GeoJSON FeatureCollection.
func (t *Tile) ToGeoJSON(name string) ([]byte, error) {
	names := t.inner.Names()
	if name != "" {
		names = []string{name}
	}
	fc := geojson.NewFeatureCollection()
	for _, ln := range names {
		body, ok := t.inner.Layer(ln)
		if !ok {
			continue
		}
		decoded, err := codec.DecodeLayer(pbf.NewReader(body), codec.DecodeOptions{Upgrade: true})
		if err != nil {
			return nil, err
		}
		for _, f := range decoded.Features {
			if f.Geometry.IsEmpty() {
				continue
			}
			wgs, err := geomops.Reproject(f.Geometry, func(p orb.Point) orb.Point {
				merc := projection.FromLocal(t.inner.Z, t.inner.X, t.inner.Y, decoded.Extent, p)
				ll, err := projection.MercatorToLonLat(merc)
				if err != nil {
					return p
				}
				return ll
			})
			if err != nil {
				return nil, err
			}
			feat := geojson.NewFeature(wgs.Orb())
			for k, v := range f.Tags {
				feat.Properties[k] = v
			}
			feat.Properties["layer"] = ln
			fc.Append(feat)
		}
	}
	return fc.MarshalJSON()
}

// GetDataOptions configures GetData.
type GetDataOptions struct {
	Compress bool
	Framing  compress.Framing
	Level    int
	Strategy compress.Strategy
	// Release empties the tile's buffer after returning the bytes.
	Release bool
}

// GetData returns the tile's encoded bytes, optionally compressing them
// and optionally releasing the tile's internal buffer afterward.
func (t *Tile) GetData(opts GetDataOptions) ([]byte, error) {
	raw := t.inner.Encode()
	out := raw
	if opts.Compress {
		var err error
		switch opts.Framing {
		case compress.FramingZlib:
			out, err = compress.DeflateZlib(raw, compress.Options{Level: opts.Level, Strategy: opts.Strategy})
		default:
			out, err = compress.DeflateGzip(raw, compress.Options{Level: opts.Level, Strategy: opts.Strategy})
		}
		if err != nil {
			return nil, err
		}
	}
	if opts.Release {
		t.inner.Clear()
	}
	return out, nil
}

// Clear empties the tile's buffer and layer indexes.
func (t *Tile) Clear() { t.inner.Clear() }

// Names returns the tile's layer names in insertion order.
func (t *Tile) Names() []string { return t.inner.Names() }

// EmptyLayers returns the names of layers with zero features.
func (t *Tile) EmptyLayers() []string { return t.inner.EmptyLayers() }

// PaintedLayers returns the names of layers with at least one feature.
func (t *Tile) PaintedLayers() []string { return t.inner.PaintedLayers() }

// Empty reports whether the tile currently has no layers at all.
func (t *Tile) Empty() bool { return len(t.inner.Names()) == 0 }

// Layer extracts a single named layer into a brand-new tile sharing this
// tile's coordinate.
func (t *Tile) Layer(name string) (*Tile, error) {
	body, ok := t.inner.Layer(name)
	if !ok {
		return nil, errs.New(errs.InvalidArgument, "layer not found")
	}
	out, err := tile.New(t.inner.Z, t.inner.X, t.inner.Y)
	if err != nil {
		return nil, err
	}
	painted := false
	for _, p := range t.inner.PaintedLayers() {
		if p == name {
			painted = true
			break
		}
	}
	out.AddLayer(name, body, painted)
	return &Tile{inner: out}, nil
}

// Extent returns the tile's unbuffered Mercator bounding box.
func (t *Tile) Extent() (minX, minY, maxX, maxY float64) { return t.inner.Extent() }

// BufferedExtent returns the tile's buffered Mercator bounding box.
func (t *Tile) BufferedExtent() (minX, minY, maxX, maxY float64) { return t.inner.BufferedExtent() }

// Info runs structural validation over arbitrary tile bytes (not
// necessarily this tile's own data): it takes bytes directly rather
// than operating on an already-loaded tile, so a caller can inspect a
// buffer without first committing it to a Tile.
func Info(data []byte) (*validate.Report, error) {
	raw, err := compress.Inflate(data)
	if err != nil {
		return nil, err
	}
	return validate.Info(raw)
}

// ReportGeometrySimplicity decodes t's own current buffer and reports
// every non-simple v2 geometry found.
func (t *Tile) ReportGeometrySimplicity() ([]validate.Finding, error) {
	return validate.ReportGeometrySimplicity(t.inner.Encode())
}

// ReportGeometryValidity decodes t's own current buffer and reports
// every invalid v2 geometry found.
func (t *Tile) ReportGeometryValidity() ([]validate.Finding, error) {
	return validate.ReportGeometryValidity(t.inner.Encode())
}
