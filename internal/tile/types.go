// internal/tile/types.go - Tile processing types
package tile

import (
	"fmt"
	"time"

	"mvtengine/pkg/mvtengine/projection"
	"mvtengine/pkg/mvtengine/validate"
)

// TileCoordinate represents a tile coordinate in the tile pyramid
type TileCoordinate struct {
	Z int `json:"z"`
	X int `json:"x"`
	Y int `json:"y"`
}

// TileRange represents a range of tiles to be processed
type TileRange struct {
	MinZ int `json:"min_z"`
	MaxZ int `json:"max_z"`
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`
}

// SourceTile is a single file-backed input to the processor: a tile
// coordinate plus the path of the encoded .mvt/.pbf file on disk.
type SourceTile struct {
	Coordinate *TileCoordinate `json:"coordinate"`
	Path       string          `json:"path"`
}

// ProcessedTile represents a tile after conversion to JSON format, or,
// for operations whose result is another encoded tile (composite,
// re-encode), the raw bytes in RawData instead.
type ProcessedTile struct {
	Coordinate *TileCoordinate `json:"coordinate"`
	Data       interface{}     `json:"data"`
	RawData    []byte          `json:"-"`
	Metadata   *TileMetadata   `json:"metadata"`
	Error      error           `json:"error,omitempty"`
}

// TileMetadata contains metadata about the processed tile
type TileMetadata struct {
	Layers       []string           `json:"layers"`
	FeatureCount int                `json:"feature_count"`
	Size         int                `json:"size"`
	ProcessTime  time.Duration      `json:"process_time"`
	Version      int                `json:"version"`
	Extent       int                `json:"extent"`
	Compressed   bool               `json:"compressed"`
	Findings     []validate.Finding `json:"findings,omitempty"`
}

// Processor defines the interface for converting local vector tile files
// into processed JSON-ready results.
type Processor interface {
	Process(src *SourceTile) (*ProcessedTile, error)
	ProcessBatch(sources []*SourceTile) ([]*ProcessedTile, error)
}

// NewTileCoordinate creates a new tile coordinate
func NewTileCoordinate(z, x, y int) *TileCoordinate {
	return &TileCoordinate{Z: z, X: x, Y: y}
}

// NewTileRange creates a new tile range
func NewTileRange(minZ, maxZ, minX, maxX, minY, maxY int) *TileRange {
	return &TileRange{
		MinZ: minZ,
		MaxZ: maxZ,
		MinX: minX,
		MaxX: maxX,
		MinY: minY,
		MaxY: maxY,
	}
}

// String returns a string representation of the tile coordinate
func (tc *TileCoordinate) String() string {
	return fmt.Sprintf("%d/%d/%d", tc.Z, tc.X, tc.Y)
}

// Count returns the total number of tiles in the range
func (tr *TileRange) Count() int64 {
	var total int64
	for z := tr.MinZ; z <= tr.MaxZ; z++ {
		xRange := int64(tr.MaxX - tr.MinX + 1)
		yRange := int64(tr.MaxY - tr.MinY + 1)
		total += xRange * yRange
	}
	return total
}

// ValidateCoordinates ensures tile coordinates are within valid bounds,
// delegating the core (z, x, y) range check to the engine's own
// projection package rather than duplicating the bounds math, with an
// additional zoom cap CLI callers shouldn't exceed in practice.
func ValidateCoordinates(z, x, y int) error {
	if z > 22 {
		return fmt.Errorf("invalid zoom level %d: must be 22 or lower", z)
	}
	if err := projection.ValidTile(z, x, y); err != nil {
		return fmt.Errorf("invalid tile coordinates %d/%d/%d: %w", z, x, y, err)
	}
	return nil
}
