package validate

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// BuildQueryString builds a validated query-string addition.
//
// Two input modes are supported. A raw string is validated for
// forbidden characters and returned with a leading "?" (an empty
// string maps to "?", a nil input maps to ""). A key-to-value(s)
// mapping is validated entry by entry and serialized with standard
// percent-encoding; slice values are appended as repeated keys in
// slice order, and non-string scalar values are stringified before
// validation.
//
// Accepted mapping types: map[string]string, map[string][]string
// (including url.Values), and map[string]interface{}.
func BuildQueryString(input interface{}) (string, error) {
	switch q := input.(type) {
	case nil:
		return "", nil
	case string:
		if containsForbiddenChars(q) {
			return "", NewValidationError(CategoryQuery, "query string contains forbidden characters")
		}
		if strings.HasPrefix(q, "?") {
			return q, nil
		}
		return "?" + q, nil
	case map[string]string:
		pairs := make(map[string][]string, len(q))
		for k, v := range q {
			pairs[k] = []string{v}
		}
		return encodePairs(pairs)
	case url.Values:
		return encodePairs(pairs(q))
	case map[string][]string:
		return encodePairs(pairs(q))
	case map[string]interface{}:
		converted, err := stringifyValues(q)
		if err != nil {
			return "", err
		}
		return encodePairs(converted)
	default:
		return "", NewValidationError(CategoryQuery, "unsupported query input type %T", input)
	}
}

func pairs(q map[string][]string) map[string][]string {
	out := make(map[string][]string, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}

// stringifyValues converts scalar and slice values to strings.
func stringifyValues(q map[string]interface{}) (map[string][]string, error) {
	out := make(map[string][]string, len(q))
	for k, raw := range q {
		switch v := raw.(type) {
		case string:
			out[k] = []string{v}
		case []string:
			out[k] = v
		case []interface{}:
			values := make([]string, 0, len(v))
			for _, elem := range v {
				values = append(values, fmt.Sprint(elem))
			}
			out[k] = values
		default:
			out[k] = []string{fmt.Sprint(v)}
		}
	}
	return out, nil
}

// encodePairs validates and percent-encodes the mapping into
// "&"-joined pairs. Keys are emitted in sorted order so the output is
// deterministic; values keep their slice order.
func encodePairs(q map[string][]string) (string, error) {
	if len(q) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		if err := ValidateQueryParamName(k); err != nil {
			return "", err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('?')
	first := true
	for _, k := range keys {
		if err := ValidateQueryParamValues(k, q[k]); err != nil {
			return "", err
		}
		for _, v := range q[k] {
			if !first {
				sb.WriteByte('&')
			}
			first = false
			sb.WriteString(url.QueryEscape(k))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(v))
		}
	}
	return sb.String(), nil
}
