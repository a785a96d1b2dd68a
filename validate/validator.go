package validate

import (
	"net/url"

	"github.com/vyrodovalexey/avrelay/observability"
)

// Validator wraps the package-level validation functions and reports
// each failure as a structured security event to an injected observer.
// Reporting is fire-and-forget and never affects the pass/fail
// outcome.
type Validator struct {
	sink observability.EventSink
}

// NewValidator creates a Validator reporting to the given sink. A nil
// sink disables reporting.
func NewValidator(sink observability.EventSink) *Validator {
	return &Validator{sink: sink}
}

// Method validates an HTTP method name.
func (v *Validator) Method(correlationID, method string) (string, error) {
	normalized, err := ValidateMethod(method)
	if err != nil {
		v.report(correlationID, err, map[string]interface{}{"method": method})
	}
	return normalized, err
}

// Header validates a header name and value pair.
func (v *Validator) Header(correlationID, name, value string) error {
	err := ValidateHeaderName(name)
	if err == nil {
		err = ValidateHeaderValue(name, value)
	}
	if err != nil {
		v.report(correlationID, err, map[string]interface{}{"header": name})
	}
	return err
}

// QueryString builds a validated query-string addition.
func (v *Validator) QueryString(correlationID string, input interface{}) (string, error) {
	qs, err := BuildQueryString(input)
	if err != nil {
		v.report(correlationID, err, nil)
	}
	return qs, err
}

// SecurePath normalizes a path and enforces the allowed prefix.
func (v *Validator) SecurePath(correlationID, path, allowedPrefix string) (string, error) {
	normalized, err := NormalizeSecurePath(path, allowedPrefix)
	if err != nil {
		v.report(correlationID, err, map[string]interface{}{
			"path":   path,
			"prefix": allowedPrefix,
		})
	}
	return normalized, err
}

// URL resolves and validates a target URL.
func (v *Validator) URL(correlationID, source, base string) (*url.URL, error) {
	resolved, err := BuildURL(source, base)
	if err != nil {
		v.report(correlationID, err, map[string]interface{}{
			"source": source,
			"base":   base,
		})
	}
	return resolved, err
}

// Report emits a security event for a validation failure produced
// elsewhere, for callers that run the package-level functions
// directly.
func (v *Validator) Report(correlationID string, err error, metadata map[string]interface{}) {
	v.report(correlationID, err, metadata)
}

func (v *Validator) report(correlationID string, err error, metadata map[string]interface{}) {
	kind := "security.validation"
	if vErr, ok := IsValidationError(err); ok {
		kind = "security." + string(vErr.Category)
	}
	observability.SafeLogEvent(v.sink, kind, correlationID, err.Error(), metadata)
}
