package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrConfigParse   ErrorCode = "CONFIG_PARSE"
	ErrInvalidConfig ErrorCode = "INVALID_CONFIG"

	// Classification
	ErrNoMatchingRule ErrorCode = "NO_MATCHING_RULE"
	ErrAlreadyInPlace ErrorCode = "ALREADY_IN_PLACE"

	// Per-file move errors
	ErrFileDisappeared ErrorCode = "FILE_DISAPPEARED"
	ErrNotRegularFile  ErrorCode = "NOT_REGULAR_FILE"
	ErrPartialCopy     ErrorCode = "PARTIAL_COPY"
	ErrMoveFailed      ErrorCode = "MOVE_FAILED"
	ErrDirCreate       ErrorCode = "DIR_CREATE"
	ErrCancelled       ErrorCode = "CANCELLED"

	// Watch subsystem
	ErrWatchSubsystem ErrorCode = "WATCH_SUBSYSTEM"

	// Autostart
	ErrAutostart ErrorCode = "AUTOSTART"
)

// RocasError represents a structured error with code and details
type RocasError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *RocasError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *RocasError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *RocasError) Is(target error) bool {
	var targetErr *RocasError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new RocasError with the given code and message
func New(code ErrorCode, message string) *RocasError {
	return &RocasError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new RocasError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *RocasError {
	return &RocasError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a RocasError
func Wrap(err error, code ErrorCode, message string) *RocasError {
	if err == nil {
		return nil
	}
	return &RocasError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *RocasError {
	if err == nil {
		return nil
	}
	return &RocasError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *RocasError) WithDetail(key string, value interface{}) *RocasError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var rocasErr *RocasError
	if errors.As(err, &rocasErr) {
		return rocasErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a RocasError
func GetErrorCode(err error) ErrorCode {
	var rocasErr *RocasError
	if errors.As(err, &rocasErr) {
		return rocasErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a RocasError
func GetErrorDetails(err error) map[string]interface{} {
	var rocasErr *RocasError
	if errors.As(err, &rocasErr) {
		return rocasErr.Details
	}
	return nil
}
