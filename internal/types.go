// internal/types.go - Common types for internal packages
package internal

import (
	"time"
)

// ApplicationConfig represents the global application configuration
// consumed by the CLI layer. There are no source-type or network
// fields: this engine reads and writes byte buffers only, with no
// storage, network, or caching layer of its own.
type ApplicationConfig struct {
	LogLevel       string
	LogFormat      string
	MaxConcurrency int
	TileSize       int
	BufferSize     int
}

// ProcessingStats represents metrics for processing operations, used by
// the CLI/batch layer's progress reporting.
type ProcessingStats struct {
	TotalTiles     int64
	ProcessedTiles int64
	FailedTiles    int64
	StartTime      time.Time
	EndTime        time.Time
	Throughput     float64
}

// Error represents application-specific errors at the CLI/batch layer,
// distinct from the engine library's own pkg/mvtengine/errs taxonomy:
// this one wraps config/job/IO failures outside the engine proper.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new application error
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode constants for common error types
const (
	ErrorCodeProcessing = "PROCESSING_ERROR"
	ErrorCodeValidation = "VALIDATION_ERROR"
	ErrorCodeConfig     = "CONFIG_ERROR"
	ErrorCodeNotFound   = "NOT_FOUND"
	ErrorCodeFileSystem = "FILESYSTEM_ERROR"
	ErrorCodePermission = "PERMISSION_ERROR"
)
