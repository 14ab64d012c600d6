package geomops

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/simplify"

	"mvtengine/pkg/mvtengine/geom"
	"mvtengine/pkg/mvtengine/projection"
)

// Reproject applies fn (typically projection.LonLatToMercator or its
// inverse) to every coordinate of g.
func Reproject(g geom.Geometry, fn func(orb.Point) orb.Point) (geom.Geometry, error) {
	return geom.Transform(g, fn)
}

// Simplify reduces g's vertex count using the Douglas-Peucker algorithm
// at the given tolerance (in the geometry's own coordinate units).
func Simplify(g geom.Geometry, tolerance float64) geom.Geometry {
	if g.IsEmpty() || tolerance <= 0 {
		return g
	}
	simplifier := simplify.DouglasPeucker(tolerance)
	out := simplifier.Simplify(g.Orb())
	simplified, err := geom.FromOrb(out)
	if err != nil {
		return g
	}
	return simplified
}

// FillType selects the polygon fill rule a Clip operation should
// preserve when a clipped ring self-touches at the tile boundary.
type FillType int

const (
	FillEvenOdd FillType = iota
	FillNonZero
	FillPositive
	FillNegative
)

// Clip cuts g to bound, using orb/clip's Sutherland-Hodgman-family
// implementation per geometry kind. FillType is accepted for interface
// symmetry with the rest of the clip operation's options but is not
// used: orb/clip itself always produces geometry consistent with
// even-odd fill.
func Clip(g geom.Geometry, bound orb.Bound, fill FillType) (geom.Geometry, error) {
	if g.IsEmpty() {
		return geom.Empty, nil
	}
	out := clip.Geometry(bound, g.Orb())
	if out == nil {
		return geom.Empty, nil
	}
	return geom.FromOrb(out)
}

// NormalizeRings fixes up a polygon/multipolygon's ring winding so
// exterior rings are counter-clockwise and interior (hole) rings are
// clockwise, the orientation MVT v2 requires.
func NormalizeRings(g geom.Geometry) geom.Geometry {
	switch g.Kind() {
	case geom.KindPolygon:
		p := g.Orb().(orb.Polygon)
		out, _ := geom.FromOrb(normalizePolygon(p))
		return out
	case geom.KindMultiPolygon:
		mp := g.Orb().(orb.MultiPolygon)
		result := make(orb.MultiPolygon, len(mp))
		for i, p := range mp {
			result[i] = normalizePolygon(p)
		}
		out, _ := geom.FromOrb(result)
		return out
	default:
		return g
	}
}

func normalizePolygon(p orb.Polygon) orb.Polygon {
	result := make(orb.Polygon, len(p))
	for i, ring := range p {
		area := signedRingArea(ring)
		wantCCW := i == 0 // exterior ring
		isCCW := area > 0
		if isCCW != wantCCW {
			result[i] = reverseRing(ring)
		} else {
			result[i] = ring
		}
	}
	return result
}

func reverseRing(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, len(ring))
	n := len(ring)
	for i, p := range ring {
		out[n-1-i] = p
	}
	return out
}

// UnionPolygons merges overlapping members of a MultiPolygon. No
// general-purpose polygon-union library is wired into this module, so
// this implements a bounding-box-overlap-then-merge heuristic by hand:
// each later polygon whose bounds overlap the current polygon's bounds
// is merged into it by appending its rings, so the result carries both
// ring sets. No containment or exact intersection test is made, which is
// sufficient for composite's "dissolve adjacent same-layer features"
// use case without needing full Boolean geometry algebra.
func UnionPolygons(mp orb.MultiPolygon) orb.MultiPolygon {
	if len(mp) <= 1 {
		return mp
	}
	merged := make([]orb.Polygon, 0, len(mp))
	used := make([]bool, len(mp))
	for i := range mp {
		if used[i] {
			continue
		}
		current := mp[i]
		for j := i + 1; j < len(mp); j++ {
			if used[j] {
				continue
			}
			if boundsOverlap(current.Bound(), mp[j].Bound()) {
				current = append(current, mp[j]...)
				used[j] = true
			}
		}
		merged = append(merged, current)
	}
	return orb.MultiPolygon(merged)
}

func boundsOverlap(a, b orb.Bound) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1]
}

// BufferedBound returns the Mercator-space clip envelope for a tile,
// delegating the math to the projection package so every caller shares
// one buffered-extent definition.
func BufferedBound(z, x, y, tileSize, bufferSize int) orb.Bound {
	minX, minY, maxX, maxY := projection.BufferedBounds(z, x, y, tileSize, bufferSize)
	return orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
}
