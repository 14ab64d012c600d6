// cmd/root.go - Root command implementation
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mvtengine/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mvtengine",
	Short: "Inspect, convert and merge Mapbox Vector Tiles",
	Long: `mvtengine is a command-line tool around an in-process Mapbox Vector Tile
engine: it decodes, reprojects, composites and validates MVT-encoded tile
buffers without talking to any tile server or cache.

Commands:
- info      structural scan of a tile file's layers, without decoding geometry
- convert   decode a tile file to GeoJSON
- composite splice one or more source tiles onto a target tile
- batch     run convert over a directory of tile files

Examples:
  # Inspect a tile's layer structure
  mvtengine info --file ./tiles/14/8362/5956.mvt

  # Convert a tile to GeoJSON
  mvtengine convert --file ./tiles/14/8362/5956.mvt --z 14 --x 8362 --y 5956

  # Composite extra layers onto a target tile
  mvtengine composite --target ./tiles/14/8362/5956.mvt --source ./overlay/14/8362/5956.mvt --z 14 --x 8362 --y 5956 --output merged.mvt

  # Batch convert a tile directory
  mvtengine batch --min-zoom 10 --max-zoom 12 --bbox "-74.0,40.7,-73.9,40.8" --path-template "./tiles/{z}/{x}/{y}.mvt" --output-dir ./out/`,
	Version: "1.0.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Configure(viper.GetString("logging.level"), viper.GetString("logging.format"), viper.GetBool("logging.verbose"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mvtengine.yaml)")

	// Output flags
	rootCmd.PersistentFlags().StringP("format", "f", "geojson", "output format (geojson, json)")
	rootCmd.PersistentFlags().Bool("pretty", true, "pretty print JSON output")
	rootCmd.PersistentFlags().Bool("compression", false, "compress output files")

	// Engine flags
	rootCmd.PersistentFlags().Int("tile-size", 4096, "default tile extent for new tiles")
	rootCmd.PersistentFlags().Int("buffer-size", 256, "default buffer extent for new tiles")

	// Processing flags
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose logging")
	rootCmd.PersistentFlags().Int("concurrency", 10, "worker-pool concurrency for batch processing")

	viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("output.pretty", rootCmd.PersistentFlags().Lookup("pretty"))
	viper.BindPFlag("output.compression", rootCmd.PersistentFlags().Lookup("compression"))
	viper.BindPFlag("engine.tile_size", rootCmd.PersistentFlags().Lookup("tile-size"))
	viper.BindPFlag("engine.buffer_size", rootCmd.PersistentFlags().Lookup("buffer-size"))
	viper.BindPFlag("logging.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("batch.concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mvtengine")
	}

	viper.SetEnvPrefix("MVTENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("logging.verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
