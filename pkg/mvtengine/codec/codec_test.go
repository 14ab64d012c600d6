package codec

import (
	"testing"

	"github.com/paulmach/orb"

	"mvtengine/pkg/mvtengine/errs"
	"mvtengine/pkg/mvtengine/geom"
	"mvtengine/pkg/mvtengine/pbf"
)

func TestCommandIntegerRoundTrip(t *testing.T) {
	header := commandInteger(CmdLineTo, 12)
	cmd, count := decodeCommandInteger(header)
	if cmd != CmdLineTo || count != 12 {
		t.Errorf("got cmd=%v count=%d", cmd, count)
	}
}

func TestZigzag32RoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 4096, -4096, 2147483647, -2147483648} {
		if got := unzigzag32(zigzag32(v)); got != v {
			t.Errorf("zigzag32 round trip failed for %d, got %d", v, got)
		}
	}
}

func TestEncodeDecodePointGeometry(t *testing.T) {
	g, _ := geom.FromOrb(orb.Point{10, 20})
	ints, gtype, err := encodeGeometry(g)
	if err != nil {
		t.Fatalf("encodeGeometry: %v", err)
	}
	if gtype != GeomPoint {
		t.Fatalf("want GeomPoint, got %v", gtype)
	}
	out, err := decodeGeometry(ints, gtype)
	if err != nil {
		t.Fatalf("decodeGeometry: %v", err)
	}
	p := out.Orb().(orb.Point)
	if p != (orb.Point{10, 20}) {
		t.Errorf("got %v", p)
	}
}

func TestEncodeDecodePolygonGeometry(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	g, _ := geom.FromOrb(square)
	ints, gtype, err := encodeGeometry(g)
	if err != nil {
		t.Fatalf("encodeGeometry: %v", err)
	}
	if gtype != GeomPolygon {
		t.Fatalf("want GeomPolygon, got %v", gtype)
	}
	out, err := decodeGeometry(ints, gtype)
	if err != nil {
		t.Fatalf("decodeGeometry: %v", err)
	}
	poly := out.Orb().(orb.Polygon)
	if len(poly[0]) != 5 {
		t.Errorf("want closed ring of 5 points, got %d", len(poly[0]))
	}
}

func TestEncodeDecodeLineGeometry(t *testing.T) {
	ls := orb.LineString{{0, 0}, {5, 5}, {10, 0}}
	g, _ := geom.FromOrb(ls)
	ints, gtype, err := encodeGeometry(g)
	if err != nil {
		t.Fatalf("encodeGeometry: %v", err)
	}
	out, err := decodeGeometry(ints, gtype)
	if err != nil {
		t.Fatalf("decodeGeometry: %v", err)
	}
	got := out.Orb().(orb.LineString)
	if len(got) != 3 {
		t.Errorf("want 3 points, got %d", len(got))
	}
}

func TestValueEncodeDecodeRoundTrip(t *testing.T) {
	cases := []any{"hello", float32(1.5), float64(2.5), int64(-7), uint64(9), true}
	for _, v := range cases {
		w := pbf.NewWriter()
		if err := encodeValue(w, v); err != nil {
			t.Fatalf("encodeValue(%v): %v", v, err)
		}
		got, err := decodeValue(w.Bytes())
		if err != nil {
			t.Fatalf("decodeValue(%v): %v", v, err)
		}
		if got != v {
			t.Errorf("want %v (%T), got %v (%T)", v, v, got, got)
		}
	}
}

func TestEncodeDecodeLayerRoundTrip(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	g, _ := geom.FromOrb(square)
	layer := LayerData{
		Name:    "buildings",
		Extent:  4096,
		Version: 2,
		Features: []Feature{
			{
				HasID:    true,
				ID:       1,
				Type:     GeomPolygon,
				Geometry: g,
				Tags:     map[string]any{"kind": "residential", "levels": int64(3)},
			},
		},
	}
	w := pbf.NewWriter()
	if err := EncodeLayer(w, layer, EncodeOptions{}); err != nil {
		t.Fatalf("EncodeLayer: %v", err)
	}

	r := pbf.NewReader(w.Bytes())
	decoded, err := DecodeLayer(r, DecodeOptions{})
	if err != nil {
		t.Fatalf("DecodeLayer: %v", err)
	}
	if decoded.Name != "buildings" || decoded.Version != 2 || decoded.Extent != 4096 {
		t.Errorf("layer metadata mismatch: %+v", decoded)
	}
	if len(decoded.Features) != 1 {
		t.Fatalf("want 1 feature, got %d", len(decoded.Features))
	}
	f := decoded.Features[0]
	if !f.HasID || f.ID != 1 {
		t.Errorf("want id=1, got %+v", f)
	}
	if f.Tags["kind"] != "residential" || f.Tags["levels"] != int64(3) {
		t.Errorf("tags mismatch: %+v", f.Tags)
	}
	poly := f.Geometry.Orb().(orb.Polygon)
	if len(poly[0]) != 5 {
		t.Errorf("want closed ring, got %d points", len(poly[0]))
	}
}

func TestEncodeLayerDropsEmptyGeometryFeature(t *testing.T) {
	layer := LayerData{
		Name:    "empty-layer",
		Extent:  4096,
		Version: 2,
		Features: []Feature{
			{Geometry: geom.Empty},
		},
	}
	w := pbf.NewWriter()
	if err := EncodeLayer(w, layer, EncodeOptions{}); err != nil {
		t.Fatalf("EncodeLayer: %v", err)
	}
	decoded, err := DecodeLayer(pbf.NewReader(w.Bytes()), DecodeOptions{})
	if err != nil {
		t.Fatalf("DecodeLayer: %v", err)
	}
	if len(decoded.Features) != 0 {
		t.Errorf("want 0 features, got %d", len(decoded.Features))
	}
}

func TestDecodeLayerRejectsV1WithoutUpgrade(t *testing.T) {
	w := pbf.NewWriter()
	layer := LayerData{Name: "v1layer", Version: 1, Extent: 4096}
	if err := EncodeLayer(w, layer, EncodeOptions{Version: 1}); err != nil {
		t.Fatalf("EncodeLayer: %v", err)
	}
	_, err := DecodeLayer(pbf.NewReader(w.Bytes()), DecodeOptions{Upgrade: false})
	if !errs.Of(err, errs.UnsupportedVersion) {
		t.Errorf("want UnsupportedVersion, got %v", err)
	}
	_, err = DecodeLayer(pbf.NewReader(w.Bytes()), DecodeOptions{Upgrade: true})
	if err != nil {
		t.Errorf("expected v1 layer to decode with upgrade, got %v", err)
	}
}

func TestDecodeLayerRejectsUnknownVersion(t *testing.T) {
	w := pbf.NewWriter()
	w.String(layerFieldNameTag, "bad")
	w.Uvarint(layerFieldExtentTag, 4096)
	w.Uvarint(layerFieldVersionTag, 99)
	_, err := DecodeLayer(pbf.NewReader(w.Bytes()), DecodeOptions{})
	if !errs.Of(err, errs.UnsupportedVersion) {
		t.Errorf("want UnsupportedVersion, got %v", err)
	}
}

func TestRasterFeatureRoundTrip(t *testing.T) {
	layer := LayerData{
		Name:    "imagery",
		Extent:  256,
		Version: 2,
		Features: []Feature{
			{
				Raster: &Raster{Format: ImageJPEG, Scaling: ScalingGaussian, Data: []byte{1, 2, 3, 4}},
			},
		},
	}
	w := pbf.NewWriter()
	if err := EncodeLayer(w, layer, EncodeOptions{}); err != nil {
		t.Fatalf("EncodeLayer: %v", err)
	}
	decoded, err := DecodeLayer(pbf.NewReader(w.Bytes()), DecodeOptions{})
	if err != nil {
		t.Fatalf("DecodeLayer: %v", err)
	}
	if len(decoded.Features) != 1 || decoded.Features[0].Raster == nil {
		t.Fatalf("want 1 raster feature, got %+v", decoded.Features)
	}
	r := decoded.Features[0].Raster
	if r.Format != ImageJPEG || r.Scaling != ScalingGaussian || string(r.Data) != "\x01\x02\x03\x04" {
		t.Errorf("raster mismatch: %+v", r)
	}
}

func TestValidScalingMethodCoversFullSet(t *testing.T) {
	all := []ScalingMethod{
		ScalingNear, ScalingBilinear, ScalingBicubic, ScalingSpline16, ScalingSpline36,
		ScalingHanning, ScalingHamming, ScalingHermite, ScalingKaiser, ScalingQuadric,
		ScalingCatrom, ScalingGaussian, ScalingBessel, ScalingMitchell, ScalingSinc,
		ScalingLanczos, ScalingBlackman,
	}
	for _, s := range all {
		if !ValidScalingMethod(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if ValidScalingMethod("not-a-method") {
		t.Error("expected unknown method to be invalid")
	}
}
