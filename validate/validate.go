package validate

import (
	"strings"
)

// allowedMethods is the fixed set of HTTP methods the forwarder will
// dispatch.
var allowedMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
}

// headerNameDisallowed lists the RFC 7230 separator characters that are
// forbidden in header field names.
const headerNameDisallowed = " \"(),/:;<=>?@[\\]{}"

// containsForbiddenChars reports whether s contains a carriage return,
// line feed, or null byte. These enable CRLF injection and header
// folding attacks.
func containsForbiddenChars(s string) bool {
	return strings.ContainsAny(s, "\r\n\x00")
}

// ValidateMethod validates an HTTP method name. The method is trimmed
// and upper-cased before membership is checked against the allow-set,
// so "get" is accepted as GET.
func ValidateMethod(method string) (string, error) {
	if strings.TrimSpace(method) == "" {
		return "", NewValidationError(CategoryMethod, "method cannot be empty")
	}
	if containsForbiddenChars(method) {
		return "", NewValidationError(CategoryMethod, "method contains forbidden characters")
	}
	trimmed := strings.TrimSpace(method)
	if strings.ContainsAny(trimmed, " \t") {
		return "", NewValidationError(CategoryMethod, "method contains whitespace")
	}
	normalized := strings.ToUpper(trimmed)
	if !allowedMethods[normalized] {
		return "", NewValidationError(CategoryMethod, "method %q is not allowed", trimmed)
	}
	return normalized, nil
}

// ValidateHeaderName validates an HTTP header field name.
func ValidateHeaderName(name string) error {
	if name == "" {
		return NewValidationError(CategoryHeader, "header name cannot be empty")
	}
	if containsForbiddenChars(name) {
		return NewValidationError(CategoryHeader, "header name %q contains forbidden characters", name)
	}
	if i := strings.IndexAny(name, headerNameDisallowed); i >= 0 {
		return NewValidationError(CategoryHeader, "header name %q contains disallowed character %q", name, name[i])
	}
	return nil
}

// ValidateHeaderValue validates an HTTP header field value. Only CR,
// LF, and NUL are rejected; they would allow response splitting.
func ValidateHeaderValue(name, value string) error {
	if containsForbiddenChars(value) {
		return NewValidationError(CategoryHeader, "value of header %q contains forbidden characters", name)
	}
	return nil
}

// ValidateQueryParamName validates a query parameter name.
func ValidateQueryParamName(name string) error {
	if name == "" {
		return NewValidationError(CategoryQuery, "query parameter name cannot be empty")
	}
	if containsForbiddenChars(name) {
		return NewValidationError(CategoryQuery, "query parameter name %q contains forbidden characters", name)
	}
	return nil
}

// ValidateQueryParamValue validates a single query parameter value.
func ValidateQueryParamValue(name, value string) error {
	if containsForbiddenChars(value) {
		return NewValidationError(CategoryQuery, "value of query parameter %q contains forbidden characters", name)
	}
	return nil
}

// ValidateQueryParamValues validates each element of a multi-valued
// query parameter independently, failing on the first offender.
func ValidateQueryParamValues(name string, values []string) error {
	for _, v := range values {
		if err := ValidateQueryParamValue(name, v); err != nil {
			return err
		}
	}
	return nil
}
