package query

import (
	"testing"

	"github.com/paulmach/orb"

	"mvtengine/pkg/mvtengine/codec"
	"mvtengine/pkg/mvtengine/geom"
	"mvtengine/pkg/mvtengine/pbf"
	"mvtengine/pkg/mvtengine/tile"
)

func buildTileWithFeatures(t *testing.T) *tile.Tile {
	t.Helper()
	tl, err := tile.New(9, 112, 195)
	if err != nil {
		t.Fatalf("tile.New: %v", err)
	}

	roadPoint, _ := geom.FromOrb(orb.Point{100, 100})
	roads := codec.LayerData{
		Name: "roads", Extent: 4096, Version: 2,
		Features: []codec.Feature{
			{Type: codec.GeomPoint, Geometry: roadPoint, Tags: map[string]any{"name": "Main St"}},
		},
	}
	waterPoint, _ := geom.FromOrb(orb.Point{105, 105})
	water := codec.LayerData{
		Name: "water", Extent: 4096, Version: 2,
		Features: []codec.Feature{
			{Type: codec.GeomPoint, Geometry: waterPoint, Tags: map[string]any{"name": "Lake"}},
		},
	}

	for _, layer := range []codec.LayerData{roads, water} {
		w := pbf.NewWriter()
		if err := codec.EncodeLayer(w, layer, codec.EncodeOptions{}); err != nil {
			t.Fatalf("EncodeLayer: %v", err)
		}
		tl.AddLayer(layer.Name, w.Bytes(), true)
	}
	return tl
}

func TestQueryFindsNearbyFeaturesOrderedDescending(t *testing.T) {
	tl := buildTileWithFeatures(t)
	results, err := Query(tl, 100, 100, 20, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	if results[0].Distance < results[1].Distance {
		t.Errorf("expected ascending->descending order (closest last), got %v then %v",
			results[0].Distance, results[1].Distance)
	}
}

func TestQueryRespectsToleranceAndLayerFilter(t *testing.T) {
	tl := buildTileWithFeatures(t)
	results, err := Query(tl, 100, 100, 2, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0].Layer != "roads" {
		t.Errorf("want only roads within tight tolerance, got %+v", results)
	}

	results, err = Query(tl, 100, 100, 1000, "water")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0].Layer != "water" {
		t.Errorf("want only water layer, got %+v", results)
	}
}

func TestQueryManyOrdersEachPointAscending(t *testing.T) {
	tl := buildTileWithFeatures(t)
	multi, err := QueryMany(tl, []Point{{X: 100, Y: 100}, {X: 105, Y: 105}}, 1000, "roads", nil)
	if err != nil {
		t.Fatalf("QueryMany: %v", err)
	}
	if len(multi.Hits) != 2 {
		t.Fatalf("want 2 point hit sets, got %d", len(multi.Hits))
	}
	for _, hits := range multi.Hits {
		for i := 1; i < len(hits); i++ {
			if hits[i-1].Distance > hits[i].Distance {
				t.Errorf("expected ascending distance order within a point, got %v", hits)
			}
		}
	}
}

func TestQueryManyDedupsSharedFeature(t *testing.T) {
	tl := buildTileWithFeatures(t)
	multi, err := QueryMany(tl, []Point{{X: 100, Y: 100}, {X: 101, Y: 101}}, 1000, "roads", nil)
	if err != nil {
		t.Fatalf("QueryMany: %v", err)
	}
	if len(multi.Features) != 1 {
		t.Fatalf("want the single roads feature stored once, got %d", len(multi.Features))
	}
	if len(multi.Hits[0]) != 1 || len(multi.Hits[1]) != 1 {
		t.Fatalf("want both points to hit the feature, got %v", multi.Hits)
	}
	if multi.Hits[0][0].FeatureIndex != multi.Hits[1][0].FeatureIndex {
		t.Errorf("want both points' hits to reference the same feature index")
	}
}

func TestQueryManyProjectsFields(t *testing.T) {
	tl := buildTileWithFeatures(t)
	multi, err := QueryMany(tl, []Point{{X: 100, Y: 100}}, 1000, "roads", []string{"name"})
	if err != nil {
		t.Fatalf("QueryMany: %v", err)
	}
	if len(multi.Hits[0]) != 1 {
		t.Fatalf("want 1 result, got %d", len(multi.Hits[0]))
	}
	featIdx := multi.Hits[0][0].FeatureIndex
	tags := multi.Features[featIdx].Feature.Tags
	if len(tags) != 1 || tags["name"] != "Main St" {
		t.Errorf("want projected tags {name: Main St}, got %v", tags)
	}
}

func TestQueryManyRejectsEmptyPoints(t *testing.T) {
	tl := buildTileWithFeatures(t)
	_, err := QueryMany(tl, nil, 10, "roads", nil)
	if err == nil {
		t.Fatal("expected error for empty point list")
	}
}

func TestQueryManyRequiresLayer(t *testing.T) {
	tl := buildTileWithFeatures(t)
	_, err := QueryMany(tl, []Point{{X: 100, Y: 100}}, 10, "", nil)
	if err == nil {
		t.Fatal("expected error for missing layer name")
	}
}
