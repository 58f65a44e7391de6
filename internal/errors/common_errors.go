package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeParsing         ErrorType = "PARSING"
	ErrTypeSchema          ErrorType = "SCHEMA"
	ErrTypeColumnSelection ErrorType = "COLUMN_SELECTION"
	ErrTypeStorage         ErrorType = "STORAGE"
	ErrTypeValidation      ErrorType = "VALIDATION"
	ErrTypeNotFound        ErrorType = "NOT_FOUND"
	ErrTypeConfig          ErrorType = "CONFIG"
	ErrTypeExport          ErrorType = "EXPORT"
	ErrTypeUnavailable     ErrorType = "UNAVAILABLE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewParseError reports a source that cannot be interpreted as tabular data.
func NewParseError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewSchemaError reports required columns that are absent. The missing names
// are sorted and stored under the "missing" context key.
func NewSchemaError(missing []string) *AppError {
	names := append([]string(nil), missing...)
	sort.Strings(names)
	return NewAppError(ErrTypeSchema, fmt.Sprintf("missing columns: %s", strings.Join(names, ", ")), nil).
		WithContext("missing", names)
}

// NewColumnSelectionError reports requested columns that are not in the dataset.
func NewColumnSelectionError(columns []string) *AppError {
	names := append([]string(nil), columns...)
	return NewAppError(ErrTypeColumnSelection, fmt.Sprintf("columns not in dataset: %s", strings.Join(names, ", ")), nil).
		WithContext("columns", names)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewExportError creates a report export error
func NewExportError(message string, cause error) *AppError {
	return NewAppError(ErrTypeExport, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewUnavailableError reports an optional backend that is not configured.
func NewUnavailableError(feature string) *AppError {
	return NewAppError(ErrTypeUnavailable, fmt.Sprintf("%s is not configured", feature), nil)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsParseError reports whether err is an ingestion parse failure.
func IsParseError(err error) bool { return TypeOf(err) == ErrTypeParsing }

// IsSchemaError reports whether err is a missing-columns failure.
func IsSchemaError(err error) bool { return TypeOf(err) == ErrTypeSchema }

// IsColumnSelectionError reports whether err is a column selection failure.
func IsColumnSelectionError(err error) bool { return TypeOf(err) == ErrTypeColumnSelection }

// MissingColumns returns the column names carried by a schema or selection error.
func MissingColumns(err error) []string {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return nil
	}
	for _, key := range []string{"missing", "columns"} {
		if names, ok := appErr.Context[key].([]string); ok {
			return names
		}
	}
	return nil
}
