package projection

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestMercatorRoundTrip(t *testing.T) {
	pts := []orb.Point{{0, 0}, {-74.006, 40.7128}, {139.6917, 35.6895}, {-180, 0}, {179.999, -60}}
	for _, p := range pts {
		merc := LonLatToMercator(p)
		back, err := MercatorToLonLat(merc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(back[0]-p[0]) > 1e-6 || math.Abs(back[1]-p[1]) > 1e-6 {
			t.Errorf("round trip mismatch for %v: got %v", p, back)
		}
	}
}

func TestMercatorToLonLatUndefinedHit(t *testing.T) {
	_, err := MercatorToLonLat(orb.Point{math.NaN(), math.NaN()})
	if err == nil {
		t.Error("expected ProjectionError for sentinel undefined hit point")
	}
}

func TestTileBoundsScenario(t *testing.T) {
	minX, minY, maxX, maxY := TileBounds(9, 112, 195)
	want := []float64{-11271098.443, 4696291.018, -11192826.926, 4774562.535}
	got := []float64{minX, minY, maxX, maxY}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-3 {
			t.Errorf("bound[%d]: want %f got %f", i, want[i], got[i])
		}
	}
}

func TestToLocalFromLocalRoundTrip(t *testing.T) {
	minX, minY, maxX, maxY := TileBounds(9, 112, 195)
	center := orb.Point{(minX + maxX) / 2, (minY + maxY) / 2}
	local := ToLocal(9, 112, 195, 4096, center)
	back := FromLocal(9, 112, 195, 4096, local)
	if math.Abs(back[0]-center[0]) > 1e-6 || math.Abs(back[1]-center[1]) > 1e-6 {
		t.Errorf("round trip mismatch: want %v got %v", center, back)
	}
	if local[0] < 0 || local[0] > 4096 || local[1] < 0 || local[1] > 4096 {
		t.Errorf("expected local coords within [0, extent], got %v", local)
	}
}

func TestValidTile(t *testing.T) {
	if err := ValidTile(9, 112, 195); err != nil {
		t.Errorf("expected valid tile, got %v", err)
	}
	if err := ValidTile(2, 4, 0); err == nil {
		t.Error("expected invalid tile for x out of range")
	}
	if err := ValidTile(-1, 0, 0); err == nil {
		t.Error("expected invalid tile for negative zoom")
	}
}
