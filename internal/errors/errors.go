package errors

import (
	"fmt"
	"time"
)

/**
 * Custom error types for raglab pipelines
 *
 * Errors carry a stable code plus free-form details so a pipeline can
 * decide whether a failure aborts the whole run or only one item.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Configuration errors
	ErrorConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrorMissingInput  ErrorCode = "MISSING_INPUT"

	// OCR ingestion errors
	ErrorUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrorFileNotFound      ErrorCode = "FILE_NOT_FOUND"
	ErrorOCRFailed         ErrorCode = "OCR_FAILED"

	// Retrieval errors
	ErrorEmbeddingFailed ErrorCode = "EMBEDDING_FAILED"
	ErrorQueryFailed     ErrorCode = "QUERY_FAILED"

	// Storage errors
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"
)

// PipelineError represents a structured pipeline error
type PipelineError struct {
	Code      ErrorCode
	Message   string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewConfigInvalidError(reason string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorConfigInvalid,
		Message:   reason,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewMissingInputError(path string) *PipelineError {
	return &PipelineError{
		Code:      ErrorMissingInput,
		Message:   fmt.Sprintf("input directory missing or empty: %s", path),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path": path,
		},
	}
}

func NewUnsupportedFormatError(path string, extension string) *PipelineError {
	return &PipelineError{
		Code:      ErrorUnsupportedFormat,
		Message:   fmt.Sprintf("unsupported image format: %s", extension),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path":      path,
			"extension": extension,
		},
	}
}

func NewFileNotFoundError(path string) *PipelineError {
	return &PipelineError{
		Code:      ErrorFileNotFound,
		Message:   fmt.Sprintf("image file does not exist: %s", path),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path": path,
		},
	}
}

func NewOCRFailedError(path string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorOCRFailed,
		Message:   fmt.Sprintf("OCR failed for %s", path),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path": path,
		},
		Cause: cause,
	}
}

func NewQueryFailedError(query string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorQueryFailed,
		Message:   "query execution failed",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"query": query,
		},
		Cause: cause,
	}
}

func NewStorageFailedError(cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorStorageFailed,
		Message:   "failed to store results",
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// CodeOf returns the error code when err is a PipelineError, or "" otherwise.
func CodeOf(err error) ErrorCode {
	if pe, ok := err.(*PipelineError); ok {
		return pe.Code
	}
	return ""
}
