package composite

import (
	"testing"

	"github.com/paulmach/orb"

	"mvtengine/pkg/mvtengine/codec"
	"mvtengine/pkg/mvtengine/geom"
	"mvtengine/pkg/mvtengine/pbf"
	"mvtengine/pkg/mvtengine/tile"
)

func encodedLayer(t *testing.T, name string, withFeature bool) []byte {
	t.Helper()
	layer := codec.LayerData{Name: name, Extent: 4096, Version: 2}
	if withFeature {
		g, _ := geom.FromOrb(orb.Point{1, 1})
		layer.Features = []codec.Feature{{Type: codec.GeomPoint, Geometry: g}}
	}
	w := pbf.NewWriter()
	if err := codec.EncodeLayer(w, layer, codec.EncodeOptions{}); err != nil {
		t.Fatalf("EncodeLayer: %v", err)
	}
	return w.Bytes()
}

func sourceTile(t *testing.T, layers map[string]bool) *tile.Tile {
	t.Helper()
	tl, err := tile.New(9, 112, 195)
	if err != nil {
		t.Fatalf("tile.New: %v", err)
	}
	for name, withFeature := range layers {
		tl.AddLayer(name, encodedLayer(t, name, withFeature), withFeature)
	}
	return tl
}

func TestCompositeSplicesAllLayersInline(t *testing.T) {
	target, _ := tile.New(9, 112, 195)
	s1 := sourceTile(t, map[string]bool{"roads": true})
	s2 := sourceTile(t, map[string]bool{"water": true})

	err := Composite(target, []*tile.Tile{s1, s2}, Options{Threading: ThreadingDeferred})
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if len(target.Names()) != 2 {
		t.Fatalf("want 2 layers, got %v", target.Names())
	}
}

func TestCompositeFirstWriterWinsOnNameConflict(t *testing.T) {
	target, _ := tile.New(9, 112, 195)
	s1 := sourceTile(t, map[string]bool{"roads": true})
	s2 := sourceTile(t, map[string]bool{"roads": false})

	if err := Composite(target, []*tile.Tile{s1, s2}, Options{}); err != nil {
		t.Fatalf("Composite: %v", err)
	}
	body, ok := target.Layer("roads")
	if !ok {
		t.Fatal("expected roads layer present")
	}
	if string(body) != string(s1MustLayer(t, s1, "roads")) {
		t.Error("expected first source's layer bytes to win")
	}
}

func s1MustLayer(t *testing.T, tl *tile.Tile, name string) []byte {
	t.Helper()
	body, ok := tl.Layer(name)
	if !ok {
		t.Fatalf("missing layer %q", name)
	}
	return body
}

func TestCompositeConcurrentMatchesInline(t *testing.T) {
	s1 := sourceTile(t, map[string]bool{"roads": true})
	s2 := sourceTile(t, map[string]bool{"water": true})
	s3 := sourceTile(t, map[string]bool{"parks": false})

	inline, _ := tile.New(9, 112, 195)
	if err := Composite(inline, []*tile.Tile{s1, s2, s3}, Options{Threading: ThreadingDeferred}); err != nil {
		t.Fatalf("inline Composite: %v", err)
	}

	concurrent, _ := tile.New(9, 112, 195)
	if err := Composite(concurrent, []*tile.Tile{s1, s2, s3}, Options{Threading: ThreadingAsync, Concurrency: 2}); err != nil {
		t.Fatalf("concurrent Composite: %v", err)
	}

	if len(inline.Names()) != len(concurrent.Names()) {
		t.Fatalf("layer count mismatch: inline=%v concurrent=%v", inline.Names(), concurrent.Names())
	}
	for _, name := range inline.Names() {
		a, _ := inline.Layer(name)
		b, ok := concurrent.Layer(name)
		if !ok || string(a) != string(b) {
			t.Errorf("layer %q mismatch between inline and concurrent composite", name)
		}
	}
}

func TestCompositeReencodeNormalizesWinding(t *testing.T) {
	target, _ := tile.New(9, 112, 195)
	clockwise := orb.Polygon{{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}}
	g, _ := geom.FromOrb(clockwise)
	layer := codec.LayerData{
		Name: "buildings", Extent: 4096, Version: 2,
		Features: []codec.Feature{{Type: codec.GeomPolygon, Geometry: g}},
	}
	w := pbf.NewWriter()
	_ = codec.EncodeLayer(w, layer, codec.EncodeOptions{})
	src, _ := tile.New(9, 112, 195)
	src.AddLayer("buildings", w.Bytes(), true)

	if err := Composite(target, []*tile.Tile{src}, Options{Reencode: true}); err != nil {
		t.Fatalf("Composite: %v", err)
	}
	body, _ := target.Layer("buildings")
	decoded, err := codec.DecodeLayer(pbf.NewReader(body), codec.DecodeOptions{})
	if err != nil {
		t.Fatalf("DecodeLayer: %v", err)
	}
	if len(decoded.Features) != 1 {
		t.Fatalf("want 1 feature, got %d", len(decoded.Features))
	}
	var ring orb.Ring
	switch g := decoded.Features[0].Geometry.Orb().(type) {
	case orb.Polygon:
		ring = g[0]
	case orb.MultiPolygon:
		ring = g[0][0]
	default:
		t.Fatalf("want polygon geometry, got %T", g)
	}
	var area float64
	for i := 0; i+1 < len(ring); i++ {
		area += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	if area <= 0 {
		t.Errorf("want exterior ring counter-clockwise (positive signed area), got %v", area/2)
	}
}

func TestCompositePropagatesSourceIndexOnError(t *testing.T) {
	target, _ := tile.New(9, 112, 195)
	good := sourceTile(t, map[string]bool{"roads": true})
	bad, _ := tile.New(9, 112, 195)
	bad.AddLayer("broken", []byte{0xff, 0xff, 0xff}, true)

	err := Composite(target, []*tile.Tile{good, bad}, Options{Reencode: true})
	if err == nil {
		t.Fatal("expected error from malformed source layer")
	}
}
