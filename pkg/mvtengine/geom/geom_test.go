package geom

import (
	"testing"

	"github.com/paulmach/orb"

	"mvtengine/pkg/mvtengine/errs"
)

func TestFromOrbClassifiesEachKind(t *testing.T) {
	cases := []struct {
		o    orb.Geometry
		want Kind
	}{
		{orb.Point{1, 2}, KindPoint},
		{orb.MultiPoint{{1, 2}}, KindMultiPoint},
		{orb.LineString{{0, 0}, {1, 1}}, KindLineString},
		{orb.MultiLineString{{{0, 0}, {1, 1}}}, KindMultiLineString},
		{orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, KindPolygon},
		{orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}}, KindMultiPolygon},
	}
	for _, c := range cases {
		g, err := FromOrb(c.o)
		if err != nil {
			t.Fatalf("FromOrb(%v): %v", c.o, err)
		}
		if g.Kind() != c.want {
			t.Errorf("want %v got %v", c.want, g.Kind())
		}
	}
}

func TestFromOrbNilIsEmpty(t *testing.T) {
	g, err := FromOrb(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.IsEmpty() {
		t.Error("expected Empty")
	}
}

func TestTransformTranslatesEveryPoint(t *testing.T) {
	g, _ := FromOrb(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})
	shift := func(p orb.Point) orb.Point { return orb.Point{p[0] + 10, p[1] + 10} }
	out, err := Transform(g, shift)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	poly := out.Orb().(orb.Polygon)
	if poly[0][0] != (orb.Point{10, 10}) {
		t.Errorf("got %v", poly[0][0])
	}
}

func TestTransformEmptyIsNoop(t *testing.T) {
	out, err := Transform(Empty, func(p orb.Point) orb.Point { return p })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsEmpty() {
		t.Error("expected Empty")
	}
}

func TestVisitDispatchesToMatchingCallback(t *testing.T) {
	g, _ := FromOrb(orb.LineString{{0, 0}, {1, 1}})
	called := false
	Visit(g, Visitor{
		LineString: func(ls orb.LineString) { called = true },
		Point:      func(p orb.Point) { t.Error("wrong callback invoked") },
	})
	if !called {
		t.Error("expected LineString callback to be invoked")
	}
}

func TestVisitEmptyCallsEmptyCallback(t *testing.T) {
	called := false
	Visit(Empty, Visitor{Empty: func() { called = true }})
	if !called {
		t.Error("expected Empty callback to be invoked")
	}
}

func TestFromOrbRejectsUnsupportedKind(t *testing.T) {
	_, err := FromOrb(orb.Bound{})
	if !errs.Of(err, errs.GeometryError) {
		t.Errorf("expected GeometryError, got %v", err)
	}
}
