package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("service unavailable")
	ErrConflict     = errors.New("conflicting operation")
)

// Specific errors.
var (
	ErrRecordNotFound       = fmt.Errorf("record: %w", ErrNotFound)
	ErrDatasetNotLoaded     = fmt.Errorf("boundary dataset: %w", ErrUnavailable)
	ErrInvalidCoordinate    = fmt.Errorf("coordinate: %w", ErrInvalidInput)
	ErrUnknownClass         = fmt.Errorf("class: %w", ErrInvalidInput)
	ErrBatchInProgress      = fmt.Errorf("batch already running: %w", ErrConflict)
	ErrBatchNotRunning      = fmt.Errorf("no batch running: %w", ErrNotFound)
	ErrNoImagesStaged       = fmt.Errorf("no images staged: %w", ErrInvalidInput)
	ErrDetectorUnavailable  = fmt.Errorf("detector: %w", ErrUnavailable)
	ErrStorageUnavailable   = fmt.Errorf("storage: %w", ErrUnavailable)
	ErrUnsupportedBoundary  = fmt.Errorf("boundary format: %w", ErrUnsupported)
)

// ValidationError represents a detailed validation error.
type ValidationError struct {
	Field      string      // Field that failed validation
	Value      interface{} // The invalid value
	Constraint string      // The constraint that was violated
	Message    string      // Human-readable message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v, constraint: %s)",
		e.Field, e.Message, e.Value, e.Constraint)
}

// Unwrap returns the underlying error type.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// InferenceError represents a failure of the detection model. Inference
// failures are fatal to the whole batch run.
type InferenceError struct {
	Path string // Image being processed
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("inference error for %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("inference error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// LookupError represents an error during a point-in-polygon lookup.
// Lookups degrade to the "Error" sentinel and never abort a batch.
type LookupError struct {
	DatasetID string // Boundary dataset identifier
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if e.DatasetID != "" {
		return fmt.Sprintf("lookup error in dataset %s: %v", e.DatasetID, e.Err)
	}
	return fmt.Sprintf("lookup error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// StorageError represents an error during storage operations.
type StorageError struct {
	Operation string // Operation that failed (download, list, etc.)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v",
			e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// DatasetError represents an error while loading the boundary dataset.
type DatasetError struct {
	Path  string // Dataset file path
	Stage string // Load stage that failed (open, reproject, index)
	Err   error  // Underlying error
}

// Error implements the error interface.
func (e *DatasetError) Error() string {
	return fmt.Sprintf("dataset error during %s for %s: %v",
		e.Stage, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *DatasetError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}
