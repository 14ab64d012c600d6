// Package geom wraps orb.Geometry in the closed geometry sum type the
// engine's codec and geomops packages operate over, generalizing the
// type-switch visitor pattern from pkg/mvt/geometry.go's
// applyGeometryTransform to every geometry kind the wire format supports
// (point, multipoint, linestring, multilinestring, polygon,
// multipolygon) plus an explicit Empty sentinel for zero-feature
// layers and malformed-but-tolerated geometry.
package geom

import (
	"github.com/paulmach/orb"

	"mvtengine/pkg/mvtengine/errs"
)

// Kind is the closed set of geometry shapes the engine understands.
type Kind int

const (
	KindEmpty Kind = iota
	KindPoint
	KindMultiPoint
	KindLineString
	KindMultiLineString
	KindPolygon
	KindMultiPolygon
	KindCollection
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindMultiPoint:
		return "MultiPoint"
	case KindLineString:
		return "LineString"
	case KindMultiLineString:
		return "MultiLineString"
	case KindPolygon:
		return "Polygon"
	case KindMultiPolygon:
		return "MultiPolygon"
	case KindCollection:
		return "Collection"
	default:
		return "Empty"
	}
}

// Empty is the zero-geometry sentinel, distinct from any orb.Geometry.
var Empty = Geometry{}

// Geometry is the engine's geometry value: either Empty, or a borrowed
// orb.Geometry tagged with its Kind so callers can switch without a type
// assertion.
type Geometry struct {
	kind Kind
	g    orb.Geometry
}

// IsEmpty reports whether g is the Empty sentinel.
func (g Geometry) IsEmpty() bool { return g.kind == KindEmpty }

// Kind reports g's shape.
func (g Geometry) Kind() Kind { return g.kind }

// Orb returns the underlying orb.Geometry, or nil for Empty.
func (g Geometry) Orb() orb.Geometry { return g.g }

// FromOrb classifies an orb.Geometry into the engine's sum type.
func FromOrb(o orb.Geometry) (Geometry, error) {
	if o == nil {
		return Empty, nil
	}
	switch o.(type) {
	case orb.Point:
		return Geometry{kind: KindPoint, g: o}, nil
	case orb.MultiPoint:
		return Geometry{kind: KindMultiPoint, g: o}, nil
	case orb.LineString:
		return Geometry{kind: KindLineString, g: o}, nil
	case orb.MultiLineString:
		return Geometry{kind: KindMultiLineString, g: o}, nil
	case orb.Polygon:
		return Geometry{kind: KindPolygon, g: o}, nil
	case orb.MultiPolygon:
		return Geometry{kind: KindMultiPolygon, g: o}, nil
	case orb.Collection:
		return Geometry{kind: KindCollection, g: o}, nil
	default:
		return Empty, errs.New(errs.GeometryError, "unsupported geometry kind")
	}
}

// maxRecursionDepth bounds Transform recursion against malformed,
// pathologically nested input. Collections may legitimately nest other
// collections; beyond 8 levels deep it is treated as malformed input
// rather than a valid feature.
const maxRecursionDepth = 8

// Transform applies fn to every coordinate in g, returning a new
// Geometry of the same Kind. It mirrors applyGeometryTransform's
// recursive-descent shape but carries an explicit depth bound and
// reports GeometryError instead of panicking on unexpected nesting.
func Transform(g Geometry, fn func(orb.Point) orb.Point) (Geometry, error) {
	if g.IsEmpty() {
		return Empty, nil
	}
	out, err := transformOrb(g.g, fn, 0)
	if err != nil {
		return Empty, err
	}
	return Geometry{kind: g.kind, g: out}, nil
}

func transformOrb(o orb.Geometry, fn func(orb.Point) orb.Point, depth int) (orb.Geometry, error) {
	if depth > maxRecursionDepth {
		return nil, errs.New(errs.GeometryError, "geometry nested beyond supported depth")
	}
	switch v := o.(type) {
	case orb.Point:
		return fn(v), nil
	case orb.MultiPoint:
		result := make(orb.MultiPoint, len(v))
		for i, p := range v {
			result[i] = fn(p)
		}
		return result, nil
	case orb.LineString:
		result := make(orb.LineString, len(v))
		for i, p := range v {
			result[i] = fn(p)
		}
		return result, nil
	case orb.Ring:
		result := make(orb.Ring, len(v))
		for i, p := range v {
			result[i] = fn(p)
		}
		return result, nil
	case orb.MultiLineString:
		result := make(orb.MultiLineString, len(v))
		for i, ls := range v {
			t, err := transformOrb(ls, fn, depth+1)
			if err != nil {
				return nil, err
			}
			result[i] = t.(orb.LineString)
		}
		return result, nil
	case orb.Polygon:
		result := make(orb.Polygon, len(v))
		for i, ring := range v {
			t, err := transformOrb(ring, fn, depth+1)
			if err != nil {
				return nil, err
			}
			result[i] = t.(orb.Ring)
		}
		return result, nil
	case orb.MultiPolygon:
		result := make(orb.MultiPolygon, len(v))
		for i, poly := range v {
			t, err := transformOrb(poly, fn, depth+1)
			if err != nil {
				return nil, err
			}
			result[i] = t.(orb.Polygon)
		}
		return result, nil
	case orb.Collection:
		result := make(orb.Collection, len(v))
		for i, sub := range v {
			t, err := transformOrb(sub, fn, depth+1)
			if err != nil {
				return nil, err
			}
			result[i] = t
		}
		return result, nil
	default:
		return nil, errs.New(errs.GeometryError, "unsupported geometry kind")
	}
}

// Visit dispatches to exactly one of the given callbacks according to
// g's Kind, the sum-type pattern the codec and query packages use
// instead of repeated type switches at every call site. Any callback
// left nil for g's Kind is simply skipped.
type Visitor struct {
	Point           func(orb.Point)
	MultiPoint      func(orb.MultiPoint)
	LineString      func(orb.LineString)
	MultiLineString func(orb.MultiLineString)
	Polygon         func(orb.Polygon)
	MultiPolygon    func(orb.MultiPolygon)
	Collection      func(orb.Collection)
	Empty           func()
}

func Visit(g Geometry, v Visitor) {
	switch g.kind {
	case KindPoint:
		if v.Point != nil {
			v.Point(g.g.(orb.Point))
		}
	case KindMultiPoint:
		if v.MultiPoint != nil {
			v.MultiPoint(g.g.(orb.MultiPoint))
		}
	case KindLineString:
		if v.LineString != nil {
			v.LineString(g.g.(orb.LineString))
		}
	case KindMultiLineString:
		if v.MultiLineString != nil {
			v.MultiLineString(g.g.(orb.MultiLineString))
		}
	case KindPolygon:
		if v.Polygon != nil {
			v.Polygon(g.g.(orb.Polygon))
		}
	case KindMultiPolygon:
		if v.MultiPolygon != nil {
			v.MultiPolygon(g.g.(orb.MultiPolygon))
		}
	case KindCollection:
		if v.Collection != nil {
			v.Collection(g.g.(orb.Collection))
		}
	default:
		if v.Empty != nil {
			v.Empty()
		}
	}
}
