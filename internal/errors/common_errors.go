package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeConfig                ErrorType = "CONFIG"
	ErrTypeDuplicateName         ErrorType = "DUPLICATE_NAME"
	ErrTypeAlreadyExists         ErrorType = "ALREADY_EXISTS"
	ErrTypeNotFound              ErrorType = "NOT_FOUND"
	ErrTypeUnrecognizedReference ErrorType = "UNRECOGNIZED_REFERENCE"
	ErrTypeParsing               ErrorType = "PARSING"
	ErrTypeValidation            ErrorType = "VALIDATION"
	ErrTypeStorage               ErrorType = "STORAGE"
)

// Sentinels for errors.Is. Any AppError of the same type matches.
var (
	ErrConfiguration         = &AppError{Type: ErrTypeConfig, Message: "invalid configuration"}
	ErrDuplicateName         = &AppError{Type: ErrTypeDuplicateName, Message: "duplicate factor name"}
	ErrAlreadyExists         = &AppError{Type: ErrTypeAlreadyExists, Message: "factor already exists"}
	ErrNotFound              = &AppError{Type: ErrTypeNotFound, Message: "not found"}
	ErrUnrecognizedReference = &AppError{Type: ErrTypeUnrecognizedReference, Message: "unrecognized reference"}
	ErrParsing               = &AppError{Type: ErrTypeParsing, Message: "parse failure"}
	ErrInvalid               = &AppError{Type: ErrTypeValidation, Message: "validation failed"}
	ErrStorage               = &AppError{Type: ErrTypeStorage, Message: "storage failure"}
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

// Is reports whether target is an AppError of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
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

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// Configf creates a configuration error from a format string.
func Configf(format string, args ...interface{}) *AppError {
	return NewAppError(ErrTypeConfig, fmt.Sprintf(format, args...), nil)
}

// NewDuplicateNameError reports factor names that occur more than once.
func NewDuplicateNameError(names []string) *AppError {
	return NewAppError(ErrTypeDuplicateName, fmt.Sprintf("factor names must be unique, duplicated: %v", names), nil).
		WithContext("names", names)
}

// NewAlreadyExistsError reports a factor name that is already registered.
func NewAlreadyExistsError(name string) *AppError {
	return NewAppError(ErrTypeAlreadyExists, fmt.Sprintf("factor %q already exists", name), nil).
		WithContext("name", name)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewUnrecognizedReferenceError reports a jurisdiction or reference key
// that resolved to zero or several candidates.
func NewUnrecognizedReferenceError(ref string, candidates []string) *AppError {
	msg := fmt.Sprintf("%q matches no known reference", ref)
	if len(candidates) > 1 {
		msg = fmt.Sprintf("%q is ambiguous, candidates: %v", ref, candidates)
	}
	return NewAppError(ErrTypeUnrecognizedReference, msg, nil).
		WithContext("reference", ref)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}
