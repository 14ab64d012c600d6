// cmd/info.go - Tile structure inspection command
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mvtengine/pkg/mvtengine"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Report the layer structure of a Mapbox Vector Tile file",
	Long: `Scan a tile file's layers and features without decoding any geometry,
reporting per-layer name/version/extent/feature counts plus structural
findings such as repeated layer names or mixed layer versions.

Examples:
  mvtengine info --file ./tiles/14/8362/5956.mvt`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().String("file", "", "path to the local tile file (required)")
	infoCmd.MarkFlagRequired("file")
}

func runInfo(cmd *cobra.Command, args []string) error {
	filePath, _ := cmd.Flags().GetString("file")

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading tile file: %w", err)
	}

	report, err := mvtengine.Info(data)
	if err != nil {
		return fmt.Errorf("scanning tile: %w", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	fmt.Println(string(out))
	return nil
}
