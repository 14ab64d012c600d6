package validate

import (
	"testing"

	"github.com/paulmach/orb"

	"mvtengine/pkg/mvtengine/codec"
	"mvtengine/pkg/mvtengine/geom"
	"mvtengine/pkg/mvtengine/pbf"
)

func encodeLayerBytes(t *testing.T, layer codec.LayerData, opts codec.EncodeOptions) []byte {
	t.Helper()
	w := pbf.NewWriter()
	if err := codec.EncodeLayer(w, layer, opts); err != nil {
		t.Fatalf("EncodeLayer: %v", err)
	}
	return w.Bytes()
}

func wrapAsTile(bodies ...[]byte) []byte {
	w := pbf.NewWriter()
	for _, b := range bodies {
		w.AppendRawMessage(3, b)
	}
	return w.Bytes()
}

func TestInfoReportsLayerSummaries(t *testing.T) {
	g, _ := geom.FromOrb(orb.Point{1, 1})
	layer := codec.LayerData{
		Name: "roads", Extent: 4096, Version: 2,
		Features: []codec.Feature{{Type: codec.GeomPoint, Geometry: g, Tags: map[string]any{"name": "Main St"}}},
	}
	data := wrapAsTile(encodeLayerBytes(t, layer, codec.EncodeOptions{}))

	report, err := Info(data)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if len(report.Layers) != 1 || report.Layers[0].Name != "roads" {
		t.Fatalf("want 1 layer named roads, got %+v", report.Layers)
	}
	if report.Layers[0].FeatureCount != 1 {
		t.Errorf("want feature count 1, got %d", report.Layers[0].FeatureCount)
	}
}

func TestInfoDetectsRepeatedLayerNames(t *testing.T) {
	layer := codec.LayerData{Name: "roads", Extent: 4096, Version: 2}
	data := wrapAsTile(
		encodeLayerBytes(t, layer, codec.EncodeOptions{}),
		encodeLayerBytes(t, layer, codec.EncodeOptions{}),
	)
	report, err := Info(data)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	found := false
	for _, f := range report.Findings {
		if f.Code == FindingRepeatedLayerName {
			found = true
		}
	}
	if !found {
		t.Errorf("expected RepeatedLayerName finding, got %+v", report.Findings)
	}
}

func TestInfoDetectsMixedVersions(t *testing.T) {
	v1 := codec.LayerData{Name: "old", Extent: 4096, Version: 1}
	v2 := codec.LayerData{Name: "new", Extent: 4096, Version: 2}
	data := wrapAsTile(
		encodeLayerBytes(t, v1, codec.EncodeOptions{Version: 1}),
		encodeLayerBytes(t, v2, codec.EncodeOptions{}),
	)
	report, err := Info(data)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	found := false
	for _, f := range report.Findings {
		if f.Code == FindingMixedVersions {
			found = true
		}
	}
	if !found {
		t.Errorf("expected MixedVersions finding, got %+v", report.Findings)
	}
}

func TestInfoRejectsEmptyInput(t *testing.T) {
	if _, err := Info(nil); err == nil {
		t.Fatal("expected error for empty tile data")
	}
}

func TestReportGeometrySimplicityFindsSelfIntersection(t *testing.T) {
	bowtie := orb.LineString{{0, 0}, {10, 10}, {10, 0}, {0, 10}}
	g, _ := geom.FromOrb(bowtie)
	layer := codec.LayerData{
		Name: "lines", Extent: 4096, Version: 2,
		Features: []codec.Feature{{Type: codec.GeomLineString, Geometry: g}},
	}
	data := wrapAsTile(encodeLayerBytes(t, layer, codec.EncodeOptions{}))

	findings, err := ReportGeometrySimplicity(data)
	if err != nil {
		t.Fatalf("ReportGeometrySimplicity: %v", err)
	}
	if len(findings) == 0 {
		t.Error("expected at least one non-simple finding")
	}
}

func TestReportGeometryValiditySkipsV1(t *testing.T) {
	layer := codec.LayerData{Name: "old", Extent: 4096, Version: 1}
	data := wrapAsTile(encodeLayerBytes(t, layer, codec.EncodeOptions{Version: 1}))

	findings, err := ReportGeometryValidity(data)
	if err != nil {
		t.Fatalf("ReportGeometryValidity: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("want no findings for v1 layer, got %+v", findings)
	}
}
