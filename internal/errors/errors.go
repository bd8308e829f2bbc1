// Package errors provides a lightweight structured error type (YoumuError)
// for category-based classification in the HTTP gateway and the CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a Youmu error for classification.
type ErrorCategory string

const (
	// Bad input; not retryable, the caller must correct it.
	CategoryConfig ErrorCategory = "config"

	// No package or no matching version could be found.
	CategoryResolution ErrorCategory = "resolution"

	// Network or source download failures.
	CategoryFetch ErrorCategory = "fetch"

	// Local filesystem failures while staging or publishing.
	CategoryWorkspace ErrorCategory = "workspace"

	// The build engine reported a failure.
	CategoryBuild ErrorCategory = "build"

	CategoryInternal ErrorCategory = "internal"
)

// Reason refines a category. Only resolution errors use it today.
type Reason string

const (
	ReasonNone                    Reason = ""
	ReasonNotFound                Reason = "not_found"
	ReasonConstraintUnsatisfiable Reason = "constraint_unsatisfiable"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// YoumuError is a structured error with category, reason and context.
type YoumuError struct {
	Category  ErrorCategory `json:"category"`
	Reason    Reason        `json:"reason,omitempty"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for YoumuError
type ContextFields map[string]any

// Error implements the error interface
func (e *YoumuError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *YoumuError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *YoumuError) WithContext(key string, value any) *YoumuError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithReason sets the reason refining the category.
func (e *YoumuError) WithReason(r Reason) *YoumuError {
	e.Reason = r
	return e
}

// New creates a new YoumuError
func New(category ErrorCategory, severity ErrorSeverity, message string) *YoumuError {
	return &YoumuError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new YoumuError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *YoumuError {
	return &YoumuError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapRetryable creates a new retryable YoumuError that wraps an existing error.
// Nothing inside youmu retries; the flag is a hint for callers.
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *YoumuError {
	e := Wrap(err, category, severity, message)
	e.Retryable = true
	return e
}

// As returns the outermost YoumuError in err's chain.
func As(err error) (*YoumuError, bool) {
	var ye *YoumuError
	if stderrors.As(err, &ye) {
		return ye, true
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ye, ok := As(err); ok {
		return ye.Category == category
	}
	return false
}

// HasReason checks if an error carries the given reason.
func HasReason(err error, reason Reason) bool {
	if ye, ok := As(err); ok {
		return ye.Reason == reason
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if ye, ok := As(err); ok {
		return ye.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a YoumuError
func GetCategory(err error) ErrorCategory {
	if ye, ok := As(err); ok {
		return ye.Category
	}
	return CategoryInternal
}
