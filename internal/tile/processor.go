// internal/tile/processor.go - Tile processing implementation
package tile

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"mvtengine/pkg/mvtengine"
	"mvtengine/pkg/mvtengine/compress"
)

// EngineProcessor implements the Processor interface on top of the
// pkg/mvtengine facade, reading an encoded tile from a local file and
// decoding/reprojecting it to GeoJSON.
type EngineProcessor struct {
	tileSize   int
	bufferSize int
	upgrade    bool
}

// NewEngineProcessor creates a processor configured with the engine's
// default tile/buffer size and whether v1 layers should be upgraded.
func NewEngineProcessor(tileSize, bufferSize int, upgrade bool) *EngineProcessor {
	return &EngineProcessor{tileSize: tileSize, bufferSize: bufferSize, upgrade: upgrade}
}

// Process reads, decodes and reprojects a single local tile file.
func (p *EngineProcessor) Process(src *SourceTile) (*ProcessedTile, error) {
	start := time.Now()

	raw, err := os.ReadFile(src.Path)
	if err != nil {
		return &ProcessedTile{
			Coordinate: src.Coordinate,
			Error:      fmt.Errorf("reading tile file: %w", err),
		}, err
	}
	if len(raw) == 0 {
		err := fmt.Errorf("empty tile file: %s", src.Path)
		return &ProcessedTile{Coordinate: src.Coordinate, Error: err}, err
	}

	tl, err := mvtengine.New(src.Coordinate.Z, src.Coordinate.X, src.Coordinate.Y, p.tileSize, p.bufferSize)
	if err != nil {
		return &ProcessedTile{
			Coordinate: src.Coordinate,
			Error:      fmt.Errorf("invalid tile coordinate: %w", err),
		}, err
	}

	if err := tl.SetData(raw, mvtengine.DataOptions{Upgrade: p.upgrade}); err != nil {
		return &ProcessedTile{
			Coordinate: src.Coordinate,
			Error:      fmt.Errorf("decoding tile: %w", err),
		}, err
	}

	out, err := tl.ToGeoJSON("")
	if err != nil {
		return &ProcessedTile{
			Coordinate: src.Coordinate,
			Error:      fmt.Errorf("converting to GeoJSON: %w", err),
		}, err
	}

	var data any
	if err := json.Unmarshal(out, &data); err != nil {
		return &ProcessedTile{
			Coordinate: src.Coordinate,
			Error:      fmt.Errorf("unmarshaling GeoJSON: %w", err),
		}, err
	}

	metadata := &TileMetadata{
		Layers:      tl.Names(),
		Size:        len(raw),
		ProcessTime: time.Since(start),
		Compressed:  compress.DetectFraming(raw) != compress.FramingNone,
	}
	if report, err := mvtengine.Info(raw); err == nil {
		for _, l := range report.Layers {
			metadata.FeatureCount += l.FeatureCount
			if l.Version > metadata.Version {
				metadata.Version = l.Version
			}
			if int(l.Extent) > metadata.Extent {
				metadata.Extent = int(l.Extent)
			}
		}
		metadata.Findings = report.Findings
	}

	return &ProcessedTile{
		Coordinate: src.Coordinate,
		Data:       data,
		Metadata:   metadata,
	}, nil
}

// ProcessBatch processes multiple local tile files sequentially,
// collecting per-tile errors rather than failing the whole batch.
func (p *EngineProcessor) ProcessBatch(sources []*SourceTile) ([]*ProcessedTile, error) {
	results := make([]*ProcessedTile, len(sources))
	for i, src := range sources {
		processed, err := p.Process(src)
		if err != nil {
			processed = &ProcessedTile{Coordinate: src.Coordinate, Error: err}
		}
		results[i] = processed
	}
	return results, nil
}
