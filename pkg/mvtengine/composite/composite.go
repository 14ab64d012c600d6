// Package composite merges N source tiles onto one target tile. Its
// worker-pool concurrency shape (a buffered job channel feeding a fixed
// pool of worker goroutines, each writing into an indexed result slot)
// is the same shape used anywhere per-item work needs to run
// concurrently while preserving the caller's original ordering.
package composite

import (
	"sync"

	"github.com/paulmach/orb"

	"mvtengine/pkg/mvtengine/codec"
	"mvtengine/pkg/mvtengine/errs"
	"mvtengine/pkg/mvtengine/geom"
	"mvtengine/pkg/mvtengine/geomops"
	"mvtengine/pkg/mvtengine/pbf"
	"mvtengine/pkg/mvtengine/tile"
)

// ThreadingMode selects whether per-source work runs inline or on a
// worker pool: async runs a worker pool, deferred runs inline, and
// async_deferred behaves as async since the engine has no separate
// deferred-commit phase to distinguish the two against.
type ThreadingMode string

const (
	ThreadingDeferred      ThreadingMode = "deferred"
	ThreadingAsync         ThreadingMode = "async"
	ThreadingAsyncDeferred ThreadingMode = "async_deferred"
)

// Options configures a Composite call.
type Options struct {
	// Reencode sends every source layer through full decode/re-encode.
	// When false every source layer is byte-spliced; source tile
	// coordinates are not compared with the target's.
	Reencode bool
	// MaxExtent is not read by the re-encode path: re-encoded layers keep
	// their source coordinates and declared extent.
	MaxExtent int
	// FillType is not read by the re-encode path: ring normalization
	// always winds exterior rings counter-clockwise and holes clockwise.
	FillType geomops.FillType
	// MultiPolygonUnion merges the overlapping members of each
	// multipolygon feature (see geomops.UnionPolygons) during re-encode.
	MultiPolygonUnion bool
	// SimplifyDistance applies Douglas-Peucker simplification at this
	// tolerance during re-encode; 0 disables simplification.
	SimplifyDistance float64
	// Threading selects inline vs worker-pool execution.
	Threading ThreadingMode
	// Concurrency bounds the worker pool size when Threading is async or
	// async_deferred; 0 defaults to 4.
	Concurrency int
}

// sourceJob is one source tile queued for per-source processing.
type sourceJob struct {
	index  int
	source *tile.Tile
}

// sourceResult is what one source tile contributed: either spliced raw
// layer bytes (fast path) or re-encoded layer bytes (slow path), keyed
// by layer name in the order they should be considered for
// first-writer-wins conflict resolution.
type sourceResult struct {
	index  int
	layers []layerContribution
	err    error
}

type layerContribution struct {
	name string
	body []byte
}

// Composite merges sources into target in order, splicing each source's
// layer bytes verbatim unless opts.Reencode is set. A layer is added only
// when its name is not already present on target and has not been claimed
// by an earlier source (first-writer-wins). Per-source processing happens
// before any mutation of target:
// if any source fails, target is left completely unchanged rather than
// partially merged.
func Composite(target *tile.Tile, sources []*tile.Tile, opts Options) error {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	results := processSources(sources, opts)

	for _, res := range results {
		if res.err != nil {
			return errs.WrapComposite(res.index, res.err)
		}
	}

	claimed := make(map[string]struct{})
	for _, name := range target.Names() {
		claimed[name] = struct{}{}
	}
	for _, res := range results {
		for _, lc := range res.layers {
			if _, already := claimed[lc.name]; already {
				continue
			}
			claimed[lc.name] = struct{}{}
			target.AddLayer(lc.name, lc.body, !isEmptyLayerBody(lc.body))
		}
	}
	return nil
}

func processSources(sources []*tile.Tile, opts Options) []sourceResult {
	switch opts.Threading {
	case ThreadingAsync, ThreadingAsyncDeferred:
		return processSourcesConcurrent(sources, opts)
	default:
		return processSourcesInline(sources, opts)
	}
}

func processSourcesInline(sources []*tile.Tile, opts Options) []sourceResult {
	results := make([]sourceResult, len(sources))
	for i, src := range sources {
		results[i] = processOneSource(i, src, opts)
	}
	return results
}

// processSourcesConcurrent fans work out over a bounded worker pool: a
// buffered job channel feeds opts.Concurrency workers, each writing its
// result to an indexed slot so the final merge still runs in source
// order regardless of completion order.
func processSourcesConcurrent(sources []*tile.Tile, opts Options) []sourceResult {
	jobs := make(chan sourceJob, len(sources))
	results := make([]sourceResult, len(sources))

	var wg sync.WaitGroup
	for w := 0; w < opts.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results[job.index] = processOneSource(job.index, job.source, opts)
			}
		}()
	}

	for i, src := range sources {
		jobs <- sourceJob{index: i, source: src}
	}
	close(jobs)
	wg.Wait()
	return results
}

func processOneSource(index int, src *tile.Tile, opts Options) sourceResult {
	if src == nil {
		return sourceResult{index: index}
	}
	var contributions []layerContribution
	for _, name := range src.Names() {
		body, ok := src.Layer(name)
		if !ok {
			continue
		}
		if !opts.Reencode {
			contributions = append(contributions, layerContribution{name: name, body: body})
			continue
		}
		reencoded, err := reencodeLayer(body, opts)
		if err != nil {
			return sourceResult{index: index, err: err}
		}
		contributions = append(contributions, layerContribution{name: name, body: reencoded})
	}
	return sourceResult{index: index, layers: contributions}
}

// reencodeLayer fully decodes a source layer and re-emits it, applying
// simplification and ring normalization so the target tile's layer
// bytes are self-consistent even when sources were produced by
// different encoders.
func reencodeLayer(body []byte, opts Options) ([]byte, error) {
	decoded, err := codec.DecodeLayer(pbf.NewReader(body), codec.DecodeOptions{Upgrade: true})
	if err != nil {
		return nil, err
	}
	for i := range decoded.Features {
		f := &decoded.Features[i]
		if f.Geometry.IsEmpty() {
			continue
		}
		if opts.SimplifyDistance > 0 {
			f.Geometry = geomops.Simplify(f.Geometry, opts.SimplifyDistance)
		}
		if opts.MultiPolygonUnion && f.Geometry.Kind() == geom.KindMultiPolygon {
			if merged, err := geom.FromOrb(geomops.UnionPolygons(f.Geometry.Orb().(orb.MultiPolygon))); err == nil {
				f.Geometry = merged
			}
		}
		if f.Type == codec.GeomPolygon {
			f.Geometry = geomops.NormalizeRings(f.Geometry)
		}
	}
	w := pbf.NewWriter()
	if err := codec.EncodeLayer(w, *decoded, codec.EncodeOptions{}); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func isEmptyLayerBody(body []byte) bool {
	decoded, err := codec.DecodeLayer(pbf.NewReader(body), codec.DecodeOptions{Upgrade: true})
	if err != nil {
		return true
	}
	return len(decoded.Features) == 0
}
