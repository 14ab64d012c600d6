// cmd/convert.go - Single tile conversion command
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mvtengine/internal/config"
	"mvtengine/internal/output"
	"mvtengine/internal/tile"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a single Mapbox Vector Tile file to JSON format",
	Long: `Convert a single Mapbox Vector Tile file from Protocol Buffer format to
JSON/GeoJSON format, reprojecting its geometry back to WGS84 using the
file's (z, x, y) tile coordinate.

Examples:
  # Convert to stdout with pretty formatting
  mvtengine convert --file ./tiles/14/8362/5956.mvt --z 14 --x 8362 --y 5956

  # Convert to a file with metadata
  mvtengine convert --file ./tiles/14/8362/5956.mvt --z 14 --x 8362 --y 5956 --output tile.geojson --metadata`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("file", "", "path to the local tile file (required)")
	convertCmd.Flags().Int("z", 0, "tile zoom level")
	convertCmd.Flags().Int("x", 0, "tile x coordinate")
	convertCmd.Flags().Int("y", 0, "tile y coordinate")

	convertCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")
	convertCmd.Flags().Bool("metadata", false, "include tile metadata in output")

	convertCmd.MarkFlagRequired("file")
	convertCmd.MarkFlagsRequiredTogether("z", "x", "y")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	filePath, _ := cmd.Flags().GetString("file")
	z, _ := cmd.Flags().GetInt("z")
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	outputPath, _ := cmd.Flags().GetString("output")
	metadata, _ := cmd.Flags().GetBool("metadata")

	if err := tile.ValidateCoordinates(z, x, y); err != nil {
		return fmt.Errorf("invalid tile coordinates: %w", err)
	}

	processor := tile.NewEngineProcessor(cfg.Engine.TileSize, cfg.Engine.BufferSize, cfg.Engine.UpgradeV1Tiles)

	if viper.GetBool("logging.verbose") {
		fmt.Fprintf(os.Stderr, "Reading tile from file: %s\n", filePath)
	}

	source := &tile.SourceTile{Coordinate: tile.NewTileCoordinate(z, x, y), Path: filePath}
	processedTile, err := processor.Process(source)
	if err != nil {
		return fmt.Errorf("failed to process tile: %w", err)
	}

	writerConfig := &output.WriterConfig{
		Format:      output.Format(cfg.Output.Format),
		Pretty:      cfg.Output.Pretty,
		Compression: viper.GetBool("output.compression"),
		Metadata:    metadata,
	}

	var writer output.Writer
	if outputPath == "" || outputPath == "-" {
		writer, err = output.NewStdoutWriter(writerConfig.Format, writerConfig.Pretty)
	} else {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		writer, err = output.NewFileWriter(writerConfig, outputPath)
	}
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer writer.Close()

	if err := writer.Write(processedTile); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if viper.GetBool("logging.verbose") {
		if outputPath == "" || outputPath == "-" {
			fmt.Fprintf(os.Stderr, "Tile converted successfully to stdout\n")
		} else {
			fmt.Fprintf(os.Stderr, "Tile converted successfully to: %s\n", outputPath)
		}

		if processedTile.Metadata != nil {
			fmt.Fprintf(os.Stderr, "Features: %d, Layers: %v, Size: %d bytes\n",
				processedTile.Metadata.FeatureCount,
				processedTile.Metadata.Layers,
				processedTile.Metadata.Size)
		}
	}

	return nil
}
