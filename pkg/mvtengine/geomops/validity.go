package geomops

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"mvtengine/pkg/mvtengine/geom"
)

// Diagnostic describes one OGC simplicity/validity violation, carrying
// the offending ring or segment re-encoded as GeoJSON so a caller (the
// validator, or a CLI `info` report) can render it without understanding
// the engine's internal geometry representation.
type Diagnostic struct {
	Reason  string
	Feature *geojson.Feature
}

// IsSimple reports whether g is OGC-simple: no line self-intersections
// for LineString/MultiLineString, and no self-intersecting ring for
// Polygon/MultiPolygon. Each ring is checked on its own; intersections
// between two different rings are not checked.
func IsSimple(g geom.Geometry) (bool, []Diagnostic) {
	var diags []Diagnostic
	geom.Visit(g, geom.Visitor{
		LineString: func(ls orb.LineString) {
			if selfIntersects(ls) {
				diags = append(diags, diagnostic("self-intersecting line", orb.Geometry(ls)))
			}
		},
		MultiLineString: func(mls orb.MultiLineString) {
			for _, ls := range mls {
				if selfIntersects(ls) {
					diags = append(diags, diagnostic("self-intersecting line", orb.Geometry(ls)))
				}
			}
		},
		Polygon: func(p orb.Polygon) {
			diags = append(diags, checkPolygonSimple(p)...)
		},
		MultiPolygon: func(mp orb.MultiPolygon) {
			for _, p := range mp {
				diags = append(diags, checkPolygonSimple(p)...)
			}
		},
	})
	return len(diags) == 0, diags
}

func checkPolygonSimple(p orb.Polygon) []Diagnostic {
	var diags []Diagnostic
	for _, ring := range p {
		if selfIntersects(orb.LineString(ring)) {
			diags = append(diags, diagnostic("self-intersecting ring", orb.Geometry(ring)))
		}
	}
	return diags
}

// IsValid reports whether g satisfies the subset of OGC Simple Features
// validity rules the engine enforces: rings closed, rings with at least
// four points (three distinct vertices plus closure), polygons simple,
// and exterior/interior ring winding opposed (checked by NormalizeRings'
// caller rather than here, since winding is a convention rather than a
// strict validity rule for MVT).
func IsValid(g geom.Geometry) (bool, []Diagnostic) {
	var diags []Diagnostic
	geom.Visit(g, geom.Visitor{
		Polygon: func(p orb.Polygon) {
			diags = append(diags, validatePolygon(p)...)
		},
		MultiPolygon: func(mp orb.MultiPolygon) {
			for _, p := range mp {
				diags = append(diags, validatePolygon(p)...)
			}
		},
	})
	simple, simpleDiags := IsSimple(g)
	if !simple {
		diags = append(diags, simpleDiags...)
	}
	return len(diags) == 0, diags
}

func validatePolygon(p orb.Polygon) []Diagnostic {
	var diags []Diagnostic
	for _, ring := range p {
		if len(ring) < 4 {
			diags = append(diags, diagnostic("ring has fewer than 4 points", orb.Geometry(ring)))
			continue
		}
		if ring[0] != ring[len(ring)-1] {
			diags = append(diags, diagnostic("ring is not closed", orb.Geometry(ring)))
		}
	}
	return diags
}

func diagnostic(reason string, g orb.Geometry) Diagnostic {
	return Diagnostic{Reason: reason, Feature: geojson.NewFeature(g)}
}

// selfIntersects reports whether any two non-adjacent segments of ls
// cross. O(n^2); acceptable for the ring/line sizes MVT tiles carry.
func selfIntersects(ls orb.LineString) bool {
	n := len(ls)
	for i := 0; i < n-1; i++ {
		a1, a2 := ls[i], ls[i+1]
		for j := i + 1; j < n-1; j++ {
			if j == i || j == i+1 {
				continue
			}
			if i == 0 && j == n-2 && ls[0] == ls[n-1] {
				// adjacent through the closing edge of a ring
				continue
			}
			b1, b2 := ls[j], ls[j+1]
			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return false
}

func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// signedRingArea computes the shoelace-formula signed area of ring;
// positive for counter-clockwise winding, negative for clockwise,
// following the convention NormalizeRings enforces for exterior rings.
func signedRingArea(ring orb.Ring) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return sum / 2
}
