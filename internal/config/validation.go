// internal/config/validation.go - Configuration validation
package config

import (
	"fmt"
	"strings"
)

// Validate validates the configuration structure and values
func Validate(config *Config) error {
	if err := validateEngine(&config.Engine); err != nil {
		return fmt.Errorf("engine configuration invalid: %w", err)
	}

	if err := validateOutput(&config.Output); err != nil {
		return fmt.Errorf("output configuration invalid: %w", err)
	}

	if err := validateBatch(&config.Batch); err != nil {
		return fmt.Errorf("batch configuration invalid: %w", err)
	}

	if err := validateLogging(&config.Logging); err != nil {
		return fmt.Errorf("logging configuration invalid: %w", err)
	}

	return nil
}

// validateEngine validates tile-engine defaults
func validateEngine(config *EngineConfig) error {
	if config.TileSize <= 0 {
		return fmt.Errorf("tile_size must be positive")
	}

	if config.BufferSize < 0 {
		return fmt.Errorf("buffer_size must be non-negative")
	}

	validCompression := []string{"none", "gzip", "zlib"}
	if !contains(validCompression, config.Compression) {
		return fmt.Errorf("invalid compression: %s, must be one of %v", config.Compression, validCompression)
	}

	if config.CompressLevel < 0 || config.CompressLevel > 9 {
		return fmt.Errorf("compress_level must be between 0 and 9")
	}

	validThreading := []string{"sequential", "worker-pool"}
	if !contains(validThreading, config.ThreadingMode) {
		return fmt.Errorf("invalid threading_mode: %s, must be one of %v", config.ThreadingMode, validThreading)
	}

	return nil
}

// validateOutput validates output configuration parameters
func validateOutput(config *OutputConfig) error {
	validFormats := []string{"geojson", "json", "custom"}
	if !contains(validFormats, config.Format) {
		return fmt.Errorf("invalid format: %s, must be one of %v", config.Format, validFormats)
	}

	if !config.Stdout && config.Directory == "" {
		return fmt.Errorf("directory is required when not using stdout")
	}

	return nil
}

// validateBatch validates batch processing configuration parameters
func validateBatch(config *BatchConfig) error {
	if config.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}

	if config.Concurrency > 1000 {
		return fmt.Errorf("concurrency must not exceed 1000")
	}

	if config.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

// validateLogging validates logging configuration parameters
func validateLogging(config *LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	if !contains(validLevels, config.Level) {
		return fmt.Errorf("invalid log level: %s, must be one of %v", config.Level, validLevels)
	}

	validFormats := []string{"text", "json"}
	if !contains(validFormats, config.Format) {
		return fmt.Errorf("invalid log format: %s, must be one of %v", config.Format, validFormats)
	}

	return nil
}

// contains checks if a string slice contains a specific string (case-insensitive)
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
