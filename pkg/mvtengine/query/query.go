// Package query implements point-based feature lookup against a decoded
// tile: single-point queries ordered for "what's under the cursor, best
// match last" consumption, and batched multi-point queries ordered per
// point for "what's under each of these N cursors" consumption.
package query

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"mvtengine/pkg/mvtengine/codec"
	"mvtengine/pkg/mvtengine/errs"
	"mvtengine/pkg/mvtengine/geomops"
	"mvtengine/pkg/mvtengine/pbf"
	"mvtengine/pkg/mvtengine/tile"
)

// Result is one feature match against a query point.
type Result struct {
	Layer    string
	Feature  codec.Feature
	Distance float64
}

// Point is one location in a multi-point query, tile-local integer
// coordinates matching the tile's own extent.
type Point struct {
	X, Y float64
}

// FeatureRef is one feature matched by a multi-point query, stored once
// in MultiResult.Features regardless of how many query points hit it.
type FeatureRef struct {
	Layer   string
	Feature codec.Feature
}

// Hit is one point's match against a feature, referencing it by index
// into MultiResult.Features rather than embedding the feature record.
type Hit struct {
	FeatureIndex int
	Distance     float64
}

// MultiResult is the result of a batched multi-point query: every
// matched feature stored once in Features, keyed by an index stable
// across the whole query, and each point's ordered hit list in Hits
// referencing those features by index. A feature hit by multiple
// points appears once in Features and once per point in Hits.
type MultiResult struct {
	Features map[int]FeatureRef
	Hits     map[int][]Hit
}

// Query finds every feature within tolerance of (x, y) — already
// projected into the tile's local coordinate space by the caller — in
// layer (all layers if layer is empty), ordered descending by distance
// with ties broken by ascending layer name: descending distance
// surfaces the closest match last, which is the convenient order for a
// caller that pops results off the end of the slice to get "best match
// first".
func Query(t *tile.Tile, x, y, tolerance float64, layer string) ([]Result, error) {
	names := t.Names()
	if layer != "" {
		names = []string{layer}
	}
	pt := orb.Point{x, y}

	var results []Result
	for _, name := range names {
		body, ok := t.Layer(name)
		if !ok {
			continue
		}
		decoded, err := codec.DecodeLayer(pbf.NewReader(body), codec.DecodeOptions{Upgrade: true})
		if err != nil {
			return nil, err
		}
		for _, f := range decoded.Features {
			if f.Geometry.IsEmpty() {
				continue
			}
			if boundingDistance(pt, f.Geometry.Orb().Bound(), tolerance) {
				continue
			}
			d := geomops.DistanceToGeometry(pt, f.Geometry)
			if d <= tolerance {
				results = append(results, Result{Layer: name, Feature: f, Distance: d})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance > results[j].Distance
		}
		return results[i].Layer < results[j].Layer
	})
	return results, nil
}

// QueryMany matches every point in points against a single layer's
// features, projecting fields down to the requested attribute keys (all
// attributes if fields is empty). Unlike Query, layer is required: a
// batch query has no well-defined per-point cross-layer result shape,
// so the caller must name the one layer to search. Each point's hits
// are ordered ascending by distance (nearest first), the natural order
// for a caller rendering per-point tooltips nearest-match-first. A
// feature matched by more than one point is decoded and stored once in
// Features; each point's Hits entry references it by index.
func QueryMany(t *tile.Tile, points []Point, tolerance float64, layer string, fields []string) (*MultiResult, error) {
	if len(points) == 0 {
		return nil, errs.New(errs.InvalidArgument, "QueryMany requires at least one point")
	}
	if layer == "" {
		return nil, errs.New(errs.InvalidArgument, "QueryMany requires a layer name")
	}

	out := &MultiResult{
		Features: make(map[int]FeatureRef),
		Hits:     make(map[int][]Hit, len(points)),
	}

	body, ok := t.Layer(layer)
	if !ok {
		for i := range points {
			out.Hits[i] = nil
		}
		return out, nil
	}
	decoded, err := codec.DecodeLayer(pbf.NewReader(body), codec.DecodeOptions{Upgrade: true})
	if err != nil {
		return nil, err
	}

	for pointIdx, p := range points {
		pt := orb.Point{p.X, p.Y}
		var hits []Hit
		for featIdx, f := range decoded.Features {
			if f.Geometry.IsEmpty() {
				continue
			}
			if boundingDistance(pt, f.Geometry.Orb().Bound(), tolerance) {
				continue
			}
			d := geomops.DistanceToGeometry(pt, f.Geometry)
			if d > tolerance {
				continue
			}
			hits = append(hits, Hit{FeatureIndex: featIdx, Distance: d})
			if _, seen := out.Features[featIdx]; !seen {
				feature := f
				if len(fields) > 0 {
					feature.Tags = projectFields(feature.Tags, fields)
				}
				out.Features[featIdx] = FeatureRef{Layer: layer, Feature: feature}
			}
		}
		sort.Slice(hits, func(a, b int) bool {
			if hits[a].Distance != hits[b].Distance {
				return hits[a].Distance < hits[b].Distance
			}
			return hits[a].FeatureIndex < hits[b].FeatureIndex
		})
		out.Hits[pointIdx] = hits
	}
	return out, nil
}

func projectFields(tags map[string]any, fields []string) map[string]any {
	projected := make(map[string]any, len(fields))
	for _, k := range fields {
		if v, ok := tags[k]; ok {
			projected[k] = v
		}
	}
	return projected
}

// boundingDistance reports whether pt lies further than tolerance from
// bound's nearest edge, an early-reject check a caller can use before
// running the full per-feature distance scan over a large layer.
func boundingDistance(pt orb.Point, bound orb.Bound, tolerance float64) bool {
	dx := math.Max(bound.Min[0]-pt[0], pt[0]-bound.Max[0])
	dy := math.Max(bound.Min[1]-pt[1], pt[1]-bound.Max[1])
	dx = math.Max(dx, 0)
	dy = math.Max(dy, 0)
	return math.Hypot(dx, dy) > tolerance
}
