package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes
const (
	CodeMalformedAnnotation = "MALFORMED_ANNOTATION"
	CodeAlignment           = "ALIGNMENT_INCONSISTENCY"
	CodeExtraction          = "EXTRACTION_FAILURE"
	CodeResolution          = "RESOLUTION_FAILURE"
	CodeConfig              = "CONFIG_ERROR"
)

// Common application errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrMalformedAnnotation = errors.New("malformed annotation")
	ErrAlignment           = errors.New("alignment inconsistency")
	ErrExtraction          = errors.New("extraction failure")
	ErrResolution          = errors.New("resolution failure")
	ErrDatabase            = errors.New("database error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// MalformedAnnotation reports a corpus record that cannot be trained on.
func MalformedAnnotation(format string, args ...any) error {
	return NewAppError(CodeMalformedAnnotation, fmt.Sprintf(format, args...), ErrMalformedAnnotation)
}

// AlignmentInconsistency reports a broken label/subword length invariant.
func AlignmentInconsistency(format string, args ...any) error {
	return NewAppError(CodeAlignment, fmt.Sprintf(format, args...), ErrAlignment)
}

// ExtractionFailure wraps an unreadable document error.
func ExtractionFailure(path string, cause error) error {
	return NewAppError(CodeExtraction, path, errors.Join(ErrExtraction, cause))
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// DatabaseFailure marks err as a storage failure for errors.Is(err, ErrDatabase).
func DatabaseFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrDatabase, err))
}
