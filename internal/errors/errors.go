// Package errors provides the diagnostic and error types shared by the loaders:
// reported build diagnostics (warnings and compile errors that never abort a
// build) and typed loader errors for the failures that do.
package errors

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// BuildError represents a reported build diagnostic
type BuildError struct {
	Component string
	File      string
	Line      int
	Column    int
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
}

// ErrorSeverity represents the severity of a diagnostic
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (be *BuildError) Error() string {
	location := be.File
	if location == "" {
		location = "unknown"
	}
	if be.Line > 0 {
		location = fmt.Sprintf("%s:%d:%d", location, be.Line, be.Column)
	}
	return fmt.Sprintf("%s: %s: %s", location, be.Severity, strings.TrimSpace(be.Message))
}

// ErrorCollector collects diagnostics emitted while loading modules. It is
// safe for concurrent use so a single collector can back a whole build.
type ErrorCollector struct {
	buildErrors []BuildError
	errors      []error
	mutex       sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		buildErrors: make([]BuildError, 0),
		errors:      make([]error, 0),
	}
}

// Add adds a diagnostic to the collector
func (ec *ErrorCollector) Add(err BuildError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	ec.buildErrors = append(ec.buildErrors, err)
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetErrors returns all collected diagnostics
func (ec *ErrorCollector) GetErrors() []BuildError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]BuildError, len(ec.buildErrors))
	copy(result, ec.buildErrors)
	return result
}

// GetBySeverity returns the diagnostics with the given severity
func (ec *ErrorCollector) GetBySeverity(severity ErrorSeverity) []BuildError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var matched []BuildError
	for _, err := range ec.buildErrors {
		if err.Severity == severity {
			matched = append(matched, err)
		}
	}
	return matched
}

// Warnings returns the collected warning diagnostics
func (ec *ErrorCollector) Warnings() []BuildError {
	return ec.GetBySeverity(ErrorSeverityWarning)
}

// GetAllErrors returns all collected errors (diagnostics and general)
func (ec *ErrorCollector) GetAllErrors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	allErrors := make([]error, 0, len(ec.buildErrors)+len(ec.errors))
	for i := range ec.buildErrors {
		buildErr := ec.buildErrors[i]
		allErrors = append(allErrors, &buildErr)
	}
	allErrors = append(allErrors, ec.errors...)

	return allErrors
}

// HasErrors returns true if any error-level diagnostic or general error was
// collected. Warnings and infos do not count.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.errors) > 0 {
		return true
	}
	for _, err := range ec.buildErrors {
		if err.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// Len returns the number of collected diagnostics and errors
func (ec *ErrorCollector) Len() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.buildErrors) + len(ec.errors)
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.buildErrors = ec.buildErrors[:0]
	ec.errors = ec.errors[:0]
}

// GetErrorsByFile returns diagnostics for a specific file
func (ec *ErrorCollector) GetErrorsByFile(file string) []BuildError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var fileErrors []BuildError
	for _, err := range ec.buildErrors {
		if err.File == file {
			fileErrors = append(fileErrors, err)
		}
	}
	return fileErrors
}

// GetErrorsByComponent returns diagnostics for a specific component
func (ec *ErrorCollector) GetErrorsByComponent(component string) []BuildError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var componentErrors []BuildError
	for _, err := range ec.buildErrors {
		if err.Component == component {
			componentErrors = append(componentErrors, err)
		}
	}
	return componentErrors
}

// Summary renders the collected diagnostics one per line, errors first.
func (ec *ErrorCollector) Summary() string {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	var b strings.Builder
	for _, severity := range []ErrorSeverity{ErrorSeverityFatal, ErrorSeverityError, ErrorSeverityWarning, ErrorSeverityInfo} {
		for i := range ec.buildErrors {
			if ec.buildErrors[i].Severity != severity {
				continue
			}
			b.WriteString(ec.buildErrors[i].Error())
			b.WriteByte('\n')
		}
	}
	for _, err := range ec.errors {
		b.WriteString(err.Error())
		b.WriteByte('\n')
	}
	return b.String()
}
