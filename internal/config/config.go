// internal/config/config.go - Configuration management
package config

import (
	"time"

	"github.com/spf13/viper"

	"mvtengine/internal"
)

// Config represents the complete application configuration
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Output  OutputConfig  `mapstructure:"output"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig holds the tile-engine defaults named by SPEC_FULL §2:
// compression, default tile/buffer size, and threading mode.
type EngineConfig struct {
	TileSize       int    `mapstructure:"tile_size"`
	BufferSize     int    `mapstructure:"buffer_size"`
	Compression    string `mapstructure:"compression"` // none, gzip, zlib
	CompressLevel  int    `mapstructure:"compress_level"`
	ThreadingMode  string `mapstructure:"threading_mode"` // sequential, worker-pool
	UpgradeV1Tiles bool   `mapstructure:"upgrade_v1_tiles"`
}

// OutputConfig contains output formatting configuration
type OutputConfig struct {
	Format      string `mapstructure:"format"`
	Directory   string `mapstructure:"directory"`
	Compression bool   `mapstructure:"compression"`
	Pretty      bool   `mapstructure:"pretty"`
	Stdout      bool   `mapstructure:"stdout"`
}

// BatchConfig contains batch processing configuration
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	ChunkSize   int           `mapstructure:"chunk_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Resume      bool          `mapstructure:"resume"`
	FailOnError bool          `mapstructure:"fail_on_error"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Verbose  bool   `mapstructure:"verbose"`
	Progress bool   `mapstructure:"progress"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, internal.NewError(internal.ErrorCodeConfig, "failed to unmarshal configuration", err)
	}

	if err := Validate(&config); err != nil {
		return nil, internal.NewError(internal.ErrorCodeConfig, "configuration validation failed", err)
	}

	return &config, nil
}

// setDefaults configures default values for all configuration options
func setDefaults() {
	// Engine defaults
	viper.SetDefault("engine.tile_size", 4096)
	viper.SetDefault("engine.buffer_size", 256)
	viper.SetDefault("engine.compression", "none")
	viper.SetDefault("engine.compress_level", 6)
	viper.SetDefault("engine.threading_mode", "worker-pool")
	viper.SetDefault("engine.upgrade_v1_tiles", true)

	// Output defaults
	viper.SetDefault("output.format", "geojson")
	viper.SetDefault("output.pretty", true)
	viper.SetDefault("output.compression", false)
	viper.SetDefault("output.stdout", false)
	viper.SetDefault("output.directory", "./output")

	// Batch defaults
	viper.SetDefault("batch.concurrency", 10)
	viper.SetDefault("batch.chunk_size", 100)
	viper.SetDefault("batch.timeout", 5*time.Minute)
	viper.SetDefault("batch.resume", false)
	viper.SetDefault("batch.fail_on_error", false)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.verbose", false)
	viper.SetDefault("logging.progress", true)
}

// ToApplicationConfig converts Config to internal.ApplicationConfig
func (c *Config) ToApplicationConfig() *internal.ApplicationConfig {
	return &internal.ApplicationConfig{
		LogLevel:       c.Logging.Level,
		LogFormat:      c.Logging.Format,
		MaxConcurrency: c.Batch.Concurrency,
		TileSize:       c.Engine.TileSize,
		BufferSize:     c.Engine.BufferSize,
	}
}
