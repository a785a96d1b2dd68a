// Package validate rejects malformed or dangerous request material
// before any network action: HTTP method names, header names and
// values, query parameter names and values, filesystem-style paths,
// and target URLs.
//
// Validation failures are never retried. Each failure carries a
// Category identifying the rejected input class so callers can map it
// to an HTTP status.
package validate

import (
	"errors"
	"fmt"
)

// Category identifies the class of input a validation failure refers to.
type Category string

// Validation categories.
const (
	CategoryMethod   Category = "method"
	CategoryHeader   Category = "header"
	CategoryQuery    Category = "query"
	CategoryPath     Category = "path"
	CategoryProtocol Category = "protocol"
)

// ErrValidation is the sentinel all validation failures match via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError represents a rejected input.
type ValidationError struct {
	Category Category
	Message  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Category, e.Message)
}

// Is checks if the error matches the target.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new ValidationError.
func NewValidationError(category Category, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Category: category, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a validation failure and, if
// so, returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
