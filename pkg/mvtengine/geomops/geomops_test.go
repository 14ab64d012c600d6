package geomops

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"mvtengine/pkg/mvtengine/geom"
)

func TestDistanceToGeometryPoint(t *testing.T) {
	g, _ := geom.FromOrb(orb.Point{0, 0})
	d := DistanceToGeometry(orb.Point{3, 4}, g)
	if math.Abs(d-5) > 1e-9 {
		t.Errorf("want 5, got %f", d)
	}
}

func TestDistanceToGeometryInsidePolygonIsZero(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	g, _ := geom.FromOrb(square)
	d := DistanceToGeometry(orb.Point{5, 5}, g)
	if d != 0 {
		t.Errorf("want 0, got %f", d)
	}
}

func TestDistanceToGeometryEmptyIsInfinite(t *testing.T) {
	if d := DistanceToGeometry(orb.Point{0, 0}, geom.Empty); !math.IsInf(d, 1) {
		t.Errorf("want +Inf, got %f", d)
	}
}

func TestIsSimpleDetectsSelfIntersectingLine(t *testing.T) {
	bowtie := orb.LineString{{0, 0}, {10, 10}, {10, 0}, {0, 10}}
	g, _ := geom.FromOrb(bowtie)
	simple, diags := IsSimple(g)
	if simple {
		t.Fatal("expected bowtie line to be reported non-simple")
	}
	if len(diags) == 0 {
		t.Error("expected at least one diagnostic")
	}
}

func TestIsSimpleAcceptsCleanPolygon(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	g, _ := geom.FromOrb(square)
	simple, diags := IsSimple(g)
	if !simple {
		t.Errorf("expected simple polygon, got diagnostics: %v", diags)
	}
}

func TestIsValidRejectsShortRing(t *testing.T) {
	tooShort := orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}
	g, _ := geom.FromOrb(tooShort)
	valid, diags := IsValid(g)
	if valid {
		t.Fatal("expected invalid for ring with fewer than 4 points")
	}
	if len(diags) == 0 {
		t.Error("expected diagnostics")
	}
}

func TestIsValidRejectsUnclosedRing(t *testing.T) {
	unclosed := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}
	g, _ := geom.FromOrb(unclosed)
	valid, _ := IsValid(g)
	if valid {
		t.Error("expected invalid for unclosed ring")
	}
}

func TestNormalizeRingsFixesExteriorWinding(t *testing.T) {
	clockwiseSquare := orb.Polygon{{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}}
	g, _ := geom.FromOrb(clockwiseSquare)
	out := NormalizeRings(g)
	poly := out.Orb().(orb.Polygon)
	if signedRingArea(poly[0]) <= 0 {
		t.Error("expected exterior ring to be counter-clockwise after normalization")
	}
}

func TestSimplifyReducesVertexCount(t *testing.T) {
	dense := orb.LineString{}
	for i := 0; i <= 100; i++ {
		x := float64(i) / 10
		dense = append(dense, orb.Point{x, math.Sin(x)})
	}
	g, _ := geom.FromOrb(dense)
	simplified := Simplify(g, 0.5)
	out := simplified.Orb().(orb.LineString)
	if len(out) >= len(dense) {
		t.Errorf("expected fewer points, got %d (from %d)", len(out), len(dense))
	}
}

func TestSimplifyZeroToleranceIsNoop(t *testing.T) {
	ls := orb.LineString{{0, 0}, {1, 1}, {2, 0}}
	g, _ := geom.FromOrb(ls)
	out := Simplify(g, 0)
	if out.Orb().(orb.LineString).Equal(ls) == false {
		t.Error("expected zero-tolerance simplify to be a no-op")
	}
}

func TestUnionPolygonsMergesOverlapping(t *testing.T) {
	a := orb.Polygon{{{0, 0}, {5, 0}, {5, 5}, {0, 5}, {0, 0}}}
	b := orb.Polygon{{{3, 3}, {8, 3}, {8, 8}, {3, 8}, {3, 3}}}
	c := orb.Polygon{{{100, 100}, {105, 100}, {105, 105}, {100, 105}, {100, 100}}}
	out := UnionPolygons(orb.MultiPolygon{a, b, c})
	if len(out) != 2 {
		t.Errorf("want 2 merged polygons, got %d", len(out))
	}
}

func TestUnionPolygonsSingleIsUnchanged(t *testing.T) {
	a := orb.Polygon{{{0, 0}, {5, 0}, {5, 5}, {0, 5}, {0, 0}}}
	out := UnionPolygons(orb.MultiPolygon{a})
	if len(out) != 1 {
		t.Errorf("want 1, got %d", len(out))
	}
}

func TestReprojectAppliesFunction(t *testing.T) {
	g, _ := geom.FromOrb(orb.Point{1, 2})
	out, err := Reproject(g, func(p orb.Point) orb.Point { return orb.Point{p[0] * 2, p[1] * 2} })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Orb().(orb.Point) != (orb.Point{2, 4}) {
		t.Errorf("got %v", out.Orb())
	}
}

func TestClipCutsGeometryToBound(t *testing.T) {
	ls := orb.LineString{{-5, 0}, {15, 0}}
	g, _ := geom.FromOrb(ls)
	bound := orb.Bound{Min: orb.Point{0, -1}, Max: orb.Point{10, 1}}
	out, err := Clip(g, bound, FillEvenOdd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.IsEmpty() {
		t.Fatal("expected clipped geometry to remain non-empty")
	}
}
