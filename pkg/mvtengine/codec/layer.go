package codec

import (
	"mvtengine/pkg/mvtengine/errs"
	"mvtengine/pkg/mvtengine/geom"
	"mvtengine/pkg/mvtengine/pbf"
)

// ScalingMethod is the closed set of raster resampling filters a raster
// feature may declare.
type ScalingMethod string

const (
	ScalingNear     ScalingMethod = "near"
	ScalingBilinear ScalingMethod = "bilinear"
	ScalingBicubic  ScalingMethod = "bicubic"
	ScalingSpline16 ScalingMethod = "spline16"
	ScalingSpline36 ScalingMethod = "spline36"
	ScalingHanning  ScalingMethod = "hanning"
	ScalingHamming  ScalingMethod = "hamming"
	ScalingHermite  ScalingMethod = "hermite"
	ScalingKaiser   ScalingMethod = "kaiser"
	ScalingQuadric  ScalingMethod = "quadric"
	ScalingCatrom   ScalingMethod = "catrom"
	ScalingGaussian ScalingMethod = "gaussian"
	ScalingBessel   ScalingMethod = "bessel"
	ScalingMitchell ScalingMethod = "mitchell"
	ScalingSinc     ScalingMethod = "sinc"
	ScalingLanczos  ScalingMethod = "lanczos"
	ScalingBlackman ScalingMethod = "blackman"
)

var validScalingMethods = map[ScalingMethod]struct{}{
	ScalingNear: {}, ScalingBilinear: {}, ScalingBicubic: {}, ScalingSpline16: {},
	ScalingSpline36: {}, ScalingHanning: {}, ScalingHamming: {}, ScalingHermite: {},
	ScalingKaiser: {}, ScalingQuadric: {}, ScalingCatrom: {}, ScalingGaussian: {},
	ScalingBessel: {}, ScalingMitchell: {}, ScalingSinc: {}, ScalingLanczos: {},
	ScalingBlackman: {},
}

// ValidScalingMethod reports whether s is one of the supported filters.
func ValidScalingMethod(s ScalingMethod) bool {
	_, ok := validScalingMethods[s]
	return ok
}

// ImageFormat is the closed set of raster container formats a raster
// feature's opaque payload may declare.
type ImageFormat string

const (
	ImageWebP ImageFormat = "webp"
	ImageJPEG ImageFormat = "jpeg"
	ImagePNG  ImageFormat = "png"
	ImageTIFF ImageFormat = "tiff"
)

var validImageFormats = map[ImageFormat]struct{}{
	ImageWebP: {}, ImageJPEG: {}, ImagePNG: {}, ImageTIFF: {},
}

func ValidImageFormat(f ImageFormat) bool {
	_, ok := validImageFormats[f]
	return ok
}

// Raster carries a feature's opaque image payload. The engine never
// decodes the pixels; it only stores and re-attaches the bytes.
type Raster struct {
	Format  ImageFormat
	Scaling ScalingMethod
	Data    []byte
}

// Feature is one decoded MVT feature: an optional id, a geometry type, a
// decoded geometry (in tile-local integer coordinates), its resolved
// attribute map, and an optional raster payload.
type Feature struct {
	ID       uint64
	HasID    bool
	Type     GeomType
	Geometry geom.Geometry
	Tags     map[string]any
	Raster   *Raster
}

// LayerData is the engine's in-memory representation of one MVT layer,
// ready either for DecodeLayer's output or EncodeLayer's input.
type LayerData struct {
	Name     string
	Version  int
	Extent   uint32
	Features []Feature
}

// EncodeOptions configures EncodeLayer.
type EncodeOptions struct {
	// Version forces the emitted layer's declared version; 0 defaults to 2.
	Version int
}

// DecodeOptions configures DecodeLayer.
type DecodeOptions struct {
	// Upgrade accepts v1 layers instead of rejecting them with
	// UnsupportedVersion, and replaces a feature geometry that does not
	// decode with an empty geometry. Ring winding, ring length and ring
	// closure are not rewritten, and the decoded layer keeps version 1.
	Upgrade bool
}

// Layer message field numbers (MVT spec §4.1).
const (
	layerFieldVersionTag  = 15
	layerFieldNameTag     = 1
	layerFieldFeatureTag  = 2
	layerFieldKeyTag      = 3
	layerFieldValueTag    = 4
	layerFieldExtentTag   = 5
)

// Feature message field numbers.
const (
	featureFieldID       = 1
	featureFieldTags     = 2
	featureFieldType     = 3
	featureFieldGeometry = 4
	featureFieldRaster   = 5 // supplemented: raster payload submessage
)

// Raster submessage field numbers.
const (
	rasterFieldFormat  = 1
	rasterFieldScaling = 2
	rasterFieldData    = 3
)

// EncodeLayer writes layer as one MVT layer message onto w.
func EncodeLayer(w *pbf.Writer, layer LayerData, opts EncodeOptions) error {
	version := opts.Version
	if version == 0 {
		version = 2
	}
	keys := newStringDict()
	values := newValueDict()

	// Encode every feature first so the key/value dictionaries are
	// complete before they are emitted after the feature bodies.
	type encodedFeature struct {
		data []byte
	}
	encoded := make([]encodedFeature, 0, len(layer.Features))
	for _, f := range layer.Features {
		body, err := encodeFeature(f, keys, values)
		if err != nil {
			return err
		}
		if body == nil {
			continue // empty post-clip geometry and no raster: dropped
		}
		encoded = append(encoded, encodedFeature{data: body})
	}

	w.String(layerFieldNameTag, layer.Name)
	for _, f := range encoded {
		w.AppendRawMessage(layerFieldFeatureTag, f.data)
	}
	for _, k := range keys.list {
		w.String(layerFieldKeyTag, k)
	}
	for _, v := range values.list {
		w.AppendRawMessage(layerFieldValueTag, v)
	}
	extent := layer.Extent
	if extent == 0 {
		extent = 4096
	}
	w.Uvarint(layerFieldExtentTag, uint64(extent))
	w.Uvarint(layerFieldVersionTag, uint64(version))
	return nil
}

func encodeFeature(f Feature, keys *stringDict, values *valueDict) ([]byte, error) {
	if f.Geometry.IsEmpty() && f.Raster == nil {
		return nil, nil
	}
	fw := pbf.NewWriter()
	if f.HasID {
		fw.Uvarint(featureFieldID, f.ID)
	}
	if len(f.Tags) > 0 {
		tagInts := make([]uint32, 0, len(f.Tags)*2)
		for k, v := range f.Tags {
			ki := keys.intern(k)
			vi, err := values.intern(v)
			if err != nil {
				return nil, err
			}
			tagInts = append(tagInts, uint32(ki), uint32(vi))
		}
		packed := pbf.NewWriter()
		for _, n := range tagInts {
			packed.RawUvarint(uint64(n))
		}
		fw.BytesField(featureFieldTags, packed.Bytes())
	}
	if !f.Geometry.IsEmpty() {
		ints, gtype, err := encodeGeometry(f.Geometry)
		if err != nil {
			return nil, err
		}
		fw.Uvarint(featureFieldType, uint64(gtype))
		geomW := pbf.NewWriter()
		for _, n := range ints {
			geomW.RawUvarint(uint64(n))
		}
		fw.BytesField(featureFieldGeometry, geomW.Bytes())
	}
	if f.Raster != nil {
		rw := pbf.NewWriter()
		rw.String(rasterFieldFormat, string(f.Raster.Format))
		rw.String(rasterFieldScaling, string(f.Raster.Scaling))
		rw.BytesField(rasterFieldData, f.Raster.Data)
		fw.BytesField(featureFieldRaster, rw.Bytes())
	}
	return fw.Bytes(), nil
}

// DecodeLayer reads one MVT layer message from r.
func DecodeLayer(r *pbf.Reader, opts DecodeOptions) (*LayerData, error) {
	layer := &LayerData{Version: 1, Extent: 4096}
	var keys []string
	var rawValues [][]byte
	var rawFeatures [][]byte
	haveName := false

	for r.Next() {
		switch r.Tag() {
		case layerFieldNameTag:
			layer.Name = r.String()
			haveName = true
		case layerFieldFeatureTag:
			rawFeatures = append(rawFeatures, r.Bytes())
		case layerFieldKeyTag:
			keys = append(keys, r.String())
		case layerFieldValueTag:
			rawValues = append(rawValues, r.Bytes())
		case layerFieldExtentTag:
			layer.Extent = uint32(r.Uvarint())
		case layerFieldVersionTag:
			layer.Version = int(r.Uvarint())
		default:
			r.Skip()
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if !haveName {
		return nil, errs.New(errs.CorruptInput, "layer missing required name field")
	}
	if layer.Version != 1 && layer.Version != 2 {
		return nil, errs.New(errs.UnsupportedVersion, "layer version not in {1, 2}")
	}
	if layer.Version == 1 && !opts.Upgrade {
		return nil, errs.New(errs.UnsupportedVersion, "v1 layer content requires upgrade option")
	}

	values := make([]any, len(rawValues))
	for i, raw := range rawValues {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	for _, raw := range rawFeatures {
		f, err := decodeFeature(raw, keys, values, layer.Version == 1 && opts.Upgrade)
		if err != nil {
			return nil, err
		}
		layer.Features = append(layer.Features, f)
	}
	return layer, nil
}

func decodeFeature(body []byte, keys []string, values []any, upgrading bool) (Feature, error) {
	fr := pbf.NewReader(body)
	var f Feature
	var rawTags []byte
	var rawGeom []byte
	var rawRaster []byte
	gtype := GeomUnknown

	for fr.Next() {
		switch fr.Tag() {
		case featureFieldID:
			f.ID = fr.Uvarint()
			f.HasID = true
		case featureFieldTags:
			rawTags = fr.Bytes()
		case featureFieldType:
			gtype = GeomType(fr.Uvarint())
		case featureFieldGeometry:
			rawGeom = fr.Bytes()
		case featureFieldRaster:
			rawRaster = fr.Bytes()
		default:
			fr.Skip()
		}
	}
	if err := fr.Err(); err != nil {
		return Feature{}, err
	}

	if len(rawTags) > 0 {
		tagInts, err := unpackUvarints(rawTags)
		if err != nil {
			return Feature{}, err
		}
		if len(tagInts)%2 != 0 {
			return Feature{}, errs.New(errs.CorruptInput, "feature tag list has odd length")
		}
		f.Tags = make(map[string]any, len(tagInts)/2)
		for i := 0; i < len(tagInts); i += 2 {
			ki, vi := tagInts[i], tagInts[i+1]
			if int(ki) >= len(keys) || int(vi) >= len(values) {
				return Feature{}, errs.New(errs.CorruptInput, "feature tag references out-of-range dictionary index")
			}
			f.Tags[keys[ki]] = values[vi]
		}
	}

	if len(rawGeom) > 0 {
		geomInts, err := unpackUvarints(rawGeom)
		if err != nil {
			return Feature{}, err
		}
		f.Type = gtype
		g, err := decodeGeometry(geomInts, gtype)
		if err != nil {
			if !upgrading {
				return Feature{}, err
			}
			g = geom.Empty
		}
		f.Geometry = g
	}

	if len(rawRaster) > 0 {
		rr := pbf.NewReader(rawRaster)
		raster := &Raster{}
		for rr.Next() {
			switch rr.Tag() {
			case rasterFieldFormat:
				raster.Format = ImageFormat(rr.String())
			case rasterFieldScaling:
				raster.Scaling = ScalingMethod(rr.String())
			case rasterFieldData:
				raster.Data = rr.Bytes()
			default:
				rr.Skip()
			}
		}
		if err := rr.Err(); err != nil {
			return Feature{}, err
		}
		f.Raster = raster
	}
	return f, nil
}

// unpackUvarints decodes a flat varint-packed uint32 sequence (used for
// both the feature tag list and the geometry command stream).
func unpackUvarints(body []byte) ([]uint32, error) {
	var out []uint32
	pos := 0
	for pos < len(body) {
		v, n := pbf.Uvarint(body[pos:])
		if n <= 0 {
			return nil, errs.New(errs.CorruptInput, "truncated packed varint sequence")
		}
		out = append(out, uint32(v))
		pos += n
	}
	return out, nil
}
