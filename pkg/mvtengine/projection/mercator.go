// Package projection implements the WGS84 <-> Web-Mercator (EPSG:3857)
// transforms the engine needs, plus tile-pyramid bounding-box math. It is
// deliberately narrow: per spec §1 this engine supports no CRS other than
// the WGS84/Mercator pair used by the Web-Mercator tile pyramid.
package projection

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"mvtengine/pkg/mvtengine/errs"
)

// EarthRadius is the sphere radius (meters) used by the spherical Mercator
// projection, matching EPSG:3857.
const EarthRadius = 6378137.0

// mercatorMax is the absolute bound of Web-Mercator X/Y in meters.
const mercatorMax = math.Pi * EarthRadius

// LonLatToMercator projects a WGS84 point to Web-Mercator meters. It is
// lossless (invertible) for every point with a valid latitude.
func LonLatToMercator(p orb.Point) orb.Point {
	x := p[0] * math.Pi / 180 * EarthRadius
	lat := clampLat(p[1])
	y := math.Log(math.Tan(math.Pi/4+lat*math.Pi/360)) * EarthRadius
	return orb.Point{x, y}
}

// MercatorToLonLat inverts LonLatToMercator. Returns ProjectionError only
// for an undefined point with a NaN coordinate, which has no meaningful
// inverse.
func MercatorToLonLat(p orb.Point) (orb.Point, error) {
	if math.IsNaN(p[0]) || math.IsNaN(p[1]) {
		return orb.Point{}, errs.New(errs.ProjectionError, "cannot reproject undefined hit point")
	}
	lon := p[0] / EarthRadius * 180 / math.Pi
	lat := 2*math.Atan(math.Exp(p[1]/EarthRadius))*180/math.Pi - 90
	return orb.Point{lon, lat}, nil
}

func clampLat(lat float64) float64 {
	const maxLat = 85.0511287798
	if lat > maxLat {
		return maxLat
	}
	if lat < -maxLat {
		return -maxLat
	}
	return lat
}

// TileBounds returns the Mercator [minx, miny, maxx, maxy] envelope of
// tile (z, x, y), matching spec §8 scenario 1.
func TileBounds(z, x, y int) (minX, minY, maxX, maxY float64) {
	t := maptile.New(uint32(x), uint32(y), maptile.Zoom(z))
	bound := t.Bound()
	min := LonLatToMercator(orb.Point{bound.Min[0], bound.Min[1]})
	max := LonLatToMercator(orb.Point{bound.Max[0], bound.Max[1]})
	return min[0], min[1], max[0], max[1]
}

// BufferedBounds expands a tile's Mercator bounds by bufferPixels worth of
// margin at the given tileSize, matching the "buffered extent" concept
// used by clipping (spec §3, §4.2).
func BufferedBounds(z, x, y, tileSize, bufferSize int) (minX, minY, maxX, maxY float64) {
	minXb, minYb, maxXb, maxYb := TileBounds(z, x, y)
	width := maxXb - minXb
	height := maxYb - minYb
	marginX := width * float64(bufferSize) / float64(tileSize)
	marginY := height * float64(bufferSize) / float64(tileSize)
	return minXb - marginX, minYb - marginY, maxXb + marginX, maxYb + marginY
}

// ToLocal maps a Mercator-meters point into tile-local integer
// coordinates in [0, extent] for tile (z, x, y), the scaling every
// encoded layer's command stream is expressed in.
func ToLocal(z, x, y int, extent uint32, p orb.Point) orb.Point {
	minX, minY, maxX, maxY := TileBounds(z, x, y)
	lx := (p[0] - minX) / (maxX - minX) * float64(extent)
	ly := (1 - (p[1]-minY)/(maxY-minY)) * float64(extent)
	return orb.Point{lx, ly}
}

// FromLocal inverts ToLocal, mapping tile-local integer coordinates back
// to Mercator meters.
func FromLocal(z, x, y int, extent uint32, p orb.Point) orb.Point {
	minX, minY, maxX, maxY := TileBounds(z, x, y)
	mx := minX + p[0]/float64(extent)*(maxX-minX)
	my := minY + (1-p[1]/float64(extent))*(maxY-minY)
	return orb.Point{mx, my}
}

// ValidTile reports whether (z, x, y) lies within the tile pyramid, per
// the invariant 0 <= x, y < 2^z.
func ValidTile(z, x, y int) error {
	if z < 0 {
		return errs.New(errs.InvalidArgument, "zoom must be non-negative")
	}
	n := 1 << uint(z)
	if x < 0 || x >= n {
		return errs.New(errs.InvalidArgument, "x out of range for zoom level")
	}
	if y < 0 || y >= n {
		return errs.New(errs.InvalidArgument, "y out of range for zoom level")
	}
	return nil
}
