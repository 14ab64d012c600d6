// cmd/composite.go - Tile compositing command
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mvtengine/internal/config"
	"mvtengine/internal/output"
	"mvtengine/internal/tile"
	"mvtengine/pkg/mvtengine"
	"mvtengine/pkg/mvtengine/composite"
)

var compositeCmd = &cobra.Command{
	Use:   "composite",
	Short: "Splice one or more source tiles onto a target tile",
	Long: `Composite merges N source tile files onto a target tile, splicing each
source's layer bytes in (or re-encoding them with --reencode) when the
layer name is not already present on the target and hasn't already been
claimed by an earlier source.

Examples:
  mvtengine composite --target base.mvt --source overlay1.mvt --source overlay2.mvt \
    --z 14 --x 8362 --y 5956 --output merged.mvt`,
	RunE: runComposite,
}

func init() {
	rootCmd.AddCommand(compositeCmd)

	compositeCmd.Flags().String("target", "", "path to the target tile file (required)")
	compositeCmd.Flags().StringArray("source", nil, "path to a source tile file to splice in (repeatable)")
	compositeCmd.Flags().Int("z", 0, "tile zoom level")
	compositeCmd.Flags().Int("x", 0, "tile x coordinate")
	compositeCmd.Flags().Int("y", 0, "tile y coordinate")
	compositeCmd.Flags().StringP("output", "o", "", "output tile file path (required)")
	compositeCmd.Flags().Bool("reencode", false, "force decode/re-encode instead of byte-splicing source layers")
	compositeCmd.Flags().Float64("simplify", 0, "Douglas-Peucker simplification tolerance applied during re-encode")

	compositeCmd.MarkFlagRequired("target")
	compositeCmd.MarkFlagRequired("output")
	compositeCmd.MarkFlagsRequiredTogether("z", "x", "y")
}

func runComposite(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	targetPath, _ := cmd.Flags().GetString("target")
	sourcePaths, _ := cmd.Flags().GetStringArray("source")
	z, _ := cmd.Flags().GetInt("z")
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	outputPath, _ := cmd.Flags().GetString("output")
	reencode, _ := cmd.Flags().GetBool("reencode")
	simplify, _ := cmd.Flags().GetFloat64("simplify")

	target, err := loadTile(targetPath, z, x, y, cfg.Engine.TileSize, cfg.Engine.BufferSize, cfg.Engine.UpgradeV1Tiles)
	if err != nil {
		return fmt.Errorf("loading target tile: %w", err)
	}

	sources := make([]*mvtengine.Tile, 0, len(sourcePaths))
	for _, path := range sourcePaths {
		src, err := loadTile(path, z, x, y, cfg.Engine.TileSize, cfg.Engine.BufferSize, cfg.Engine.UpgradeV1Tiles)
		if err != nil {
			return fmt.Errorf("loading source tile %s: %w", path, err)
		}
		sources = append(sources, src)
	}

	if err := target.Composite(sources, composite.Options{
		Reencode:         reencode,
		SimplifyDistance: simplify,
	}); err != nil {
		return fmt.Errorf("compositing: %w", err)
	}

	data, err := target.GetData(mvtengine.GetDataOptions{Compress: cfg.Output.Compression})
	if err != nil {
		return fmt.Errorf("encoding merged tile: %w", err)
	}

	writer, err := output.NewFileWriter(&output.WriterConfig{Format: output.FormatMVT}, outputPath)
	if err != nil {
		return fmt.Errorf("creating output writer: %w", err)
	}
	defer writer.Close()

	merged := &tile.ProcessedTile{
		Coordinate: tile.NewTileCoordinate(z, x, y),
		RawData:    data,
	}
	if err := writer.Write(merged); err != nil {
		return fmt.Errorf("writing output tile: %w", err)
	}

	if viper.GetBool("logging.verbose") {
		fmt.Fprintf(os.Stderr, "Composited %d source(s) onto %s -> %s (%d bytes)\n", len(sources), targetPath, outputPath, len(data))
	}

	return nil
}

func loadTile(path string, z, x, y, tileSize, bufferSize int, upgrade bool) (*mvtengine.Tile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tl, err := mvtengine.New(z, x, y, tileSize, bufferSize)
	if err != nil {
		return nil, err
	}
	if err := tl.SetData(data, mvtengine.DataOptions{Upgrade: upgrade}); err != nil {
		return nil, err
	}
	return tl, nil
}
