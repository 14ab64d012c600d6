package mvtengine

import (
	"testing"

	"mvtengine/pkg/mvtengine/codec"
	"mvtengine/pkg/mvtengine/composite"
)

const sampleGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"name": "City Hall"},
			"geometry": {"type": "Point", "coordinates": [-74.006, 40.7128]}
		}
	]
}`

func TestNewRejectsOutOfRangeCoordinate(t *testing.T) {
	if _, err := New(2, 4, 0, 0, 0); err == nil {
		t.Fatal("expected error for out-of-range tile coordinate")
	}
}

func TestAddGeoJSONThenGetDataRoundTrips(t *testing.T) {
	tl, err := New(9, 150, 192, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tl.AddGeoJSON([]byte(sampleGeoJSON), "poi", AddGeoJSONOptions{}); err != nil {
		t.Fatalf("AddGeoJSON: %v", err)
	}
	if len(tl.Names()) != 1 || tl.Names()[0] != "poi" {
		t.Fatalf("want layer poi, got %v", tl.Names())
	}
	if len(tl.PaintedLayers()) != 1 {
		t.Errorf("want poi painted, got %v", tl.PaintedLayers())
	}

	data, err := tl.GetData(GetDataOptions{})
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty encoded tile")
	}

	out, err := tl.ToGeoJSON("poi")
	if err != nil {
		t.Fatalf("ToGeoJSON: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty GeoJSON output")
	}
}

func TestGetDataCompressedRoundTripsThroughSetData(t *testing.T) {
	tl, err := New(9, 150, 192, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tl.AddGeoJSON([]byte(sampleGeoJSON), "poi", AddGeoJSONOptions{}); err != nil {
		t.Fatalf("AddGeoJSON: %v", err)
	}
	gz, err := tl.GetData(GetDataOptions{Compress: true})
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}

	other, err := New(9, 150, 192, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := other.SetData(gz, DataOptions{Upgrade: true}); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	if len(other.Names()) != 1 {
		t.Fatalf("want 1 layer after SetData, got %v", other.Names())
	}
}

func TestSetDataRejectsCorruptBufferWithoutMutatingTile(t *testing.T) {
	tl, err := New(9, 150, 192, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tl.AddGeoJSON([]byte(sampleGeoJSON), "poi", AddGeoJSONOptions{}); err != nil {
		t.Fatalf("AddGeoJSON: %v", err)
	}
	if err := tl.SetData([]byte{0xff, 0xff, 0xff}, DataOptions{}); err == nil {
		t.Fatal("expected error for corrupt tile data")
	}
	if len(tl.Names()) != 1 {
		t.Errorf("expected tile layers unchanged after failed SetData, got %v", tl.Names())
	}
}

func TestCompositeSplicesSourceLayerOntoTarget(t *testing.T) {
	target, err := New(9, 150, 192, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	source, err := New(9, 150, 192, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := source.AddGeoJSON([]byte(sampleGeoJSON), "poi", AddGeoJSONOptions{}); err != nil {
		t.Fatalf("AddGeoJSON: %v", err)
	}
	if err := target.Composite([]*Tile{source}, composite.Options{}); err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if len(target.Names()) != 1 || target.Names()[0] != "poi" {
		t.Fatalf("want poi layer on target after composite, got %v", target.Names())
	}
}

func TestQueryFindsAddedFeature(t *testing.T) {
	tl, err := New(9, 150, 192, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tl.AddGeoJSON([]byte(sampleGeoJSON), "poi", AddGeoJSONOptions{}); err != nil {
		t.Fatalf("AddGeoJSON: %v", err)
	}
	results, err := tl.Query(-74.006, 40.7128, 1, "poi")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result at the feature's own coordinate")
	}
}

func TestInfoReportsLayerForEncodedTile(t *testing.T) {
	tl, err := New(9, 150, 192, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tl.AddGeoJSON([]byte(sampleGeoJSON), "poi", AddGeoJSONOptions{}); err != nil {
		t.Fatalf("AddGeoJSON: %v", err)
	}
	data, err := tl.GetData(GetDataOptions{})
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	report, err := Info(data)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if len(report.Layers) != 1 || report.Layers[0].Name != "poi" {
		t.Fatalf("want 1 layer named poi, got %+v", report.Layers)
	}
}

func TestAddImageLayerRejectsUnknownFormat(t *testing.T) {
	tl, err := New(9, 150, 192, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tl.AddImageLayer([]byte{1, 2, 3}, "raster", AddImageLayerOptions{Format: "bogus"}); err == nil {
		t.Fatal("expected error for unrecognized image format")
	}
}

func TestAddImageLayerAcceptsKnownFormat(t *testing.T) {
	tl, err := New(9, 150, 192, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tl.AddImageLayer([]byte{1, 2, 3}, "raster", AddImageLayerOptions{Format: codec.ImageWebP}); err != nil {
		t.Fatalf("AddImageLayer: %v", err)
	}
	if len(tl.PaintedLayers()) != 1 {
		t.Errorf("want raster layer painted, got %v", tl.PaintedLayers())
	}
}

func TestClearEmptiesTile(t *testing.T) {
	tl, err := New(9, 150, 192, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tl.AddGeoJSON([]byte(sampleGeoJSON), "poi", AddGeoJSONOptions{}); err != nil {
		t.Fatalf("AddGeoJSON: %v", err)
	}
	tl.Clear()
	if !tl.Empty() {
		t.Error("expected tile to be empty after Clear")
	}
}
