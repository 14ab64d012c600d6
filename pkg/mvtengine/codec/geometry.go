package codec

import (
	"github.com/paulmach/orb"

	"mvtengine/pkg/mvtengine/errs"
	"mvtengine/pkg/mvtengine/geom"
)

// GeomType is the MVT feature geometry-type tag, a closed set of
// {unknown, point, linestring, polygon}.
type GeomType uint32

const (
	GeomUnknown    GeomType = 0
	GeomPoint      GeomType = 1
	GeomLineString GeomType = 2
	GeomPolygon    GeomType = 3
)

// encodeGeometry converts g, already scaled to tile-local integer
// coordinates by the caller, into a command stream and its geometry-type
// tag.
func encodeGeometry(g geom.Geometry) ([]uint32, GeomType, error) {
	if g.IsEmpty() {
		return nil, GeomUnknown, nil
	}
	var (
		w     commandWriter
		gtype GeomType
		err   error
	)
	geom.Visit(g, geom.Visitor{
		Point: func(p orb.Point) {
			gtype = GeomPoint
			w.moveTo(toPoint(p))
		},
		MultiPoint: func(mp orb.MultiPoint) {
			gtype = GeomPoint
			pts := make([]point, len(mp))
			for i, p := range mp {
				pts[i] = toPoint(p)
			}
			w.moveTo(pts...)
		},
		LineString: func(ls orb.LineString) {
			gtype = GeomLineString
			encodeLine(&w, ls)
		},
		MultiLineString: func(mls orb.MultiLineString) {
			gtype = GeomLineString
			for _, ls := range mls {
				encodeLine(&w, ls)
			}
		},
		Polygon: func(p orb.Polygon) {
			gtype = GeomPolygon
			for _, ring := range p {
				encodeRing(&w, ring)
			}
		},
		MultiPolygon: func(mp orb.MultiPolygon) {
			gtype = GeomPolygon
			for _, p := range mp {
				for _, ring := range p {
					encodeRing(&w, ring)
				}
			}
		},
		Collection: func(c orb.Collection) {
			err = errs.New(errs.GeometryError, "geometry collections cannot be encoded as a single MVT feature")
		},
	})
	if err != nil {
		return nil, GeomUnknown, err
	}
	return w.ints, gtype, nil
}

func encodeLine(w *commandWriter, ls orb.LineString) {
	if len(ls) == 0 {
		return
	}
	w.moveTo(toPoint(ls[0]))
	if len(ls) > 1 {
		pts := make([]point, len(ls)-1)
		for i, p := range ls[1:] {
			pts[i] = toPoint(p)
		}
		w.lineTo(pts...)
	}
}

func encodeRing(w *commandWriter, ring orb.Ring) {
	if len(ring) == 0 {
		return
	}
	// Drop the closing duplicate vertex; ClosePath implies it.
	body := ring
	if len(body) > 1 && body[0] == body[len(body)-1] {
		body = body[:len(body)-1]
	}
	if len(body) == 0 {
		return
	}
	w.moveTo(toPoint(body[0]))
	if len(body) > 1 {
		pts := make([]point, len(body)-1)
		for i, p := range body[1:] {
			pts[i] = toPoint(p)
		}
		w.lineTo(pts...)
	}
	w.closePath()
}

func toPoint(p orb.Point) point {
	return point{x: int32(p[0]), y: int32(p[1])}
}

// decodeGeometry walks a command stream per gtype, reconstructing the
// tile-local integer-coordinate geometry it describes.
func decodeGeometry(ints []uint32, gtype GeomType) (geom.Geometry, error) {
	if len(ints) == 0 || gtype == GeomUnknown {
		return geom.Empty, nil
	}
	r := newCommandReader(ints)
	switch gtype {
	case GeomPoint:
		return decodePointGeometry(r)
	case GeomLineString:
		return decodeLineGeometry(r)
	case GeomPolygon:
		return decodePolygonGeometry(r)
	default:
		return geom.Empty, errs.New(errs.CorruptInput, "unknown geometry type tag")
	}
}

func decodePointGeometry(r *commandReader) (geom.Geometry, error) {
	cmd, count, ok := r.next()
	if !ok || cmd != CmdMoveTo {
		return geom.Empty, errs.New(errs.CorruptInput, "point geometry must start with MoveTo")
	}
	pts := make(orb.MultiPoint, 0, count)
	for i := uint32(0); i < count; i++ {
		p, err := r.param()
		if err != nil {
			return geom.Empty, err
		}
		pts = append(pts, orb.Point{float64(p.x), float64(p.y)})
	}
	if len(pts) == 1 {
		return geom.FromOrb(orb.Point(pts[0]))
	}
	return geom.FromOrb(pts)
}

func decodeLineGeometry(r *commandReader) (geom.Geometry, error) {
	var lines orb.MultiLineString
	for {
		cmd, count, ok := r.next()
		if !ok {
			break
		}
		if cmd != CmdMoveTo || count != 1 {
			return geom.Empty, errs.New(errs.CorruptInput, "line geometry must start each part with MoveTo(1)")
		}
		start, err := r.param()
		if err != nil {
			return geom.Empty, err
		}
		ls := orb.LineString{{float64(start.x), float64(start.y)}}
		lcmd, lcount, ok := r.next()
		if ok {
			if lcmd != CmdLineTo {
				return geom.Empty, errs.New(errs.CorruptInput, "expected LineTo after MoveTo in line geometry")
			}
			for i := uint32(0); i < lcount; i++ {
				p, err := r.param()
				if err != nil {
					return geom.Empty, err
				}
				ls = append(ls, orb.Point{float64(p.x), float64(p.y)})
			}
		}
		lines = append(lines, ls)
	}
	if len(lines) == 1 {
		return geom.FromOrb(lines[0])
	}
	return geom.FromOrb(lines)
}

func decodePolygonGeometry(r *commandReader) (geom.Geometry, error) {
	var rings []orb.Ring
	for {
		cmd, count, ok := r.next()
		if !ok {
			break
		}
		if cmd != CmdMoveTo || count != 1 {
			return geom.Empty, errs.New(errs.CorruptInput, "polygon ring must start with MoveTo(1)")
		}
		start, err := r.param()
		if err != nil {
			return geom.Empty, err
		}
		ring := orb.Ring{{float64(start.x), float64(start.y)}}
		lcmd, lcount, ok := r.next()
		if !ok || lcmd != CmdLineTo {
			return geom.Empty, errs.New(errs.CorruptInput, "expected LineTo after MoveTo in polygon ring")
		}
		for i := uint32(0); i < lcount; i++ {
			p, err := r.param()
			if err != nil {
				return geom.Empty, err
			}
			ring = append(ring, orb.Point{float64(p.x), float64(p.y)})
		}
		ccmd, _, ok := r.next()
		if !ok || ccmd != CmdClosePath {
			return geom.Empty, errs.New(errs.CorruptInput, "polygon ring missing ClosePath")
		}
		ring = append(ring, ring[0])
		if len(ring) < 4 {
			return geom.Empty, errs.New(errs.CorruptInput, "polygon ring has fewer than 4 points after closing")
		}
		rings = append(rings, ring)
	}
	polys := splitRingsIntoPolygons(rings)
	if len(polys) == 1 {
		return geom.FromOrb(polys[0])
	}
	return geom.FromOrb(orb.MultiPolygon(polys))
}

// splitRingsIntoPolygons groups a flat ring sequence into polygons by
// signed area: a counter-clockwise ring starts a new polygon (exterior
// shell), clockwise rings that follow belong to it as holes, per the
// MVT v2 winding convention.
func splitRingsIntoPolygons(rings []orb.Ring) []orb.Polygon {
	var polys []orb.Polygon
	for _, ring := range rings {
		if signedRingArea(ring) > 0 || len(polys) == 0 {
			polys = append(polys, orb.Polygon{ring})
		} else {
			polys[len(polys)-1] = append(polys[len(polys)-1], ring)
		}
	}
	return polys
}

func signedRingArea(ring orb.Ring) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return sum / 2
}
