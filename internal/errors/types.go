package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeBuild      ErrorType = "build"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// LoaderError is a structured error type with context.
type LoaderError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Component string
	FilePath  string
	Line      int
	Column    int
}

// Error implements the error interface.
func (e *LoaderError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *LoaderError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a LoaderError with the same type and code.
func (e *LoaderError) Is(target error) bool {
	var t *LoaderError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *LoaderError) WithContext(key string, value interface{}) *LoaderError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *LoaderError) WithLocation(filePath string, line, column int) *LoaderError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithComponent adds component context.
func (e *LoaderError) WithComponent(component string) *LoaderError {
	e.Component = component

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *LoaderError {
	return &LoaderError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewBuildError creates a build error.
func NewBuildError(code, message string, cause error) *LoaderError {
	return &LoaderError{
		Type:    ErrorTypeBuild,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *LoaderError {
	return &LoaderError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *LoaderError {
	return &LoaderError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *LoaderError {
	return &LoaderError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsBuildError checks if an error is build-related.
func IsBuildError(err error) bool {
	var le *LoaderError
	if errors.As(err, &le) {
		return le.Type == ErrorTypeBuild
	}

	return false
}

// HasCode reports whether err wraps a LoaderError carrying code.
func HasCode(err error, code string) bool {
	var le *LoaderError
	if errors.As(err, &le) {
		return le.Code == code
	}

	return false
}

// Common error codes.
const (
	ErrCodeInvalidQuery     = "ERR_INVALID_QUERY"
	ErrCodeSelectNoMatch    = "ERR_SELECT_NO_MATCH"
	ErrCodeSelectIndexRange = "ERR_SELECT_INDEX_RANGE"
	ErrCodePreprocess       = "ERR_PREPROCESS"
	ErrCodeTranspile        = "ERR_TRANSPILE"
	ErrCodeFormat           = "ERR_FORMAT"
	ErrCodeBuildFailed      = "ERR_BUILD_FAILED"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeUnknownModule    = "ERR_UNKNOWN_MODULE"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// ErrSelectNoMatch reports a block request the selector cannot serve.
func ErrSelectNoMatch(blockType string) *LoaderError {
	return NewValidationError(ErrCodeSelectNoMatch, "no block matches request type "+quoteOrEmpty(blockType))
}

// ErrSelectIndexRange reports a style or custom block index outside the descriptor.
func ErrSelectIndexRange(blockType string, index, count int) *LoaderError {
	return NewValidationError(
		ErrCodeSelectIndexRange,
		fmt.Sprintf("%s block index %d out of range (descriptor has %d)", blockType, index, count),
	)
}

// ErrPreprocess wraps a templating engine failure.
func ErrPreprocess(lang string, cause error) *LoaderError {
	return NewBuildError(ErrCodePreprocess, "template pre-processing with "+lang+" failed", cause)
}

// ErrBuildFailed creates a build failure error.
func ErrBuildFailed(component string, cause error) *LoaderError {
	return NewBuildError(
		ErrCodeBuildFailed,
		"build failed for component: "+component,
		cause,
	)
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return fmt.Sprintf("%q", s)
}
