// Package geomops implements the geometry predicates and transforms the
// query and validate subsystems need on top of the geom sum type:
// distance measurement, simplicity/validity checking, reprojection,
// simplification, clipping and ring-winding normalization. It builds on
// github.com/paulmach/orb's planar geometry helpers for coordinate
// transforms, extended with orb/simplify and orb/clip for the
// tile-boundary operations that distance measurement alone can't cover.
package geomops

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"mvtengine/pkg/mvtengine/geom"
)

// DistanceToGeometry returns the planar distance from pt to g, dispatch
// by geometry kind via geom.Visit. A MultiPoint/MultiLineString/
// MultiPolygon/Collection distance is the minimum over its members.
func DistanceToGeometry(pt orb.Point, g geom.Geometry) float64 {
	if g.IsEmpty() {
		return math.Inf(1)
	}
	best := math.Inf(1)
	geom.Visit(g, geom.Visitor{
		Point: func(p orb.Point) {
			best = planar.Distance(pt, p)
		},
		MultiPoint: func(mp orb.MultiPoint) {
			for _, p := range mp {
				best = math.Min(best, planar.Distance(pt, p))
			}
		},
		LineString: func(ls orb.LineString) {
			best = planar.DistanceFromLine(pt, ls)
		},
		MultiLineString: func(mls orb.MultiLineString) {
			for _, ls := range mls {
				best = math.Min(best, planar.DistanceFromLine(pt, ls))
			}
		},
		Polygon: func(p orb.Polygon) {
			best = distanceToPolygon(pt, p)
		},
		MultiPolygon: func(mp orb.MultiPolygon) {
			for _, p := range mp {
				best = math.Min(best, distanceToPolygon(pt, p))
			}
		},
		Collection: func(c orb.Collection) {
			for _, sub := range c {
				subG, err := geom.FromOrb(sub)
				if err != nil {
					continue
				}
				best = math.Min(best, DistanceToGeometry(pt, subG))
			}
		},
	})
	return best
}

// distanceToPolygon returns 0 if pt lies inside p (point-in-polygon per
// the outer ring minus holes), otherwise the minimum distance to any
// ring's boundary.
func distanceToPolygon(pt orb.Point, p orb.Polygon) float64 {
	if planar.PolygonContains(p, pt) {
		return 0
	}
	best := math.Inf(1)
	for _, ring := range p {
		best = math.Min(best, planar.DistanceFromLine(pt, orb.LineString(ring)))
	}
	return best
}
