package template

import (
	"errors"
	"fmt"
)

// FormatError reports that a template body parsed as neither JSON nor
// YAML. Both underlying parser errors are retained for diagnostics.
type FormatError struct {
	// JSONErr is the error from the JSON parse attempt.
	JSONErr error

	// YAMLErr is the error from the YAML parse attempt.
	YAMLErr error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("template is neither valid JSON nor valid YAML: json: %v; yaml: %v",
		e.JSONErr, e.YAMLErr)
}

// ValidationError reports a structural problem with a template: a
// missing or empty Resources section, an unsupported resource kind, or
// an explicit dependency on an undeclared logical name.
type ValidationError struct {
	// Message is the human-readable description of the violation.
	Message string

	// Resource is the logical name of the offending resource, if any.
	Resource string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("resource %q: %s", e.Resource, e.Message)
	}
	return e.Message
}

// NewValidationError creates a validation error with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// WithResource attaches the offending logical name.
func (e *ValidationError) WithResource(name string) *ValidationError {
	e.Resource = name
	return e
}

// IsFormat reports whether err is a template format error.
func IsFormat(err error) bool {
	var e *FormatError
	return errors.As(err, &e)
}

// IsValidation reports whether err is a template validation error.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
