package validate

import "strings"

// NormalizeSecurePath normalizes a filesystem-style path and enforces
// that the result stays under allowedPrefix.
//
// Empty and "." segments are discarded. A ".." segment pops the last
// retained segment when one exists; segments that would pop past the
// root are silently dropped rather than rejected. The permissive pop
// and the strict trailing prefix check jointly define the traversal
// boundary: popping is always permitted, and only the final prefix
// check decides whether the path escaped.
func NormalizeSecurePath(path, allowedPrefix string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", NewValidationError(CategoryPath, "path cannot be empty")
	}
	if strings.TrimSpace(allowedPrefix) == "" {
		return "", NewValidationError(CategoryPath, "allowed prefix cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return "", NewValidationError(CategoryPath, "path contains a null byte")
	}

	var stack []string
	for _, segment := range strings.Split(path, "/") {
		switch segment {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, segment)
		}
	}

	normalized := "/" + strings.Join(stack, "/")
	if !strings.HasPrefix(normalized, allowedPrefix) {
		return "", NewValidationError(CategoryPath, "path %q escapes allowed prefix %q", normalized, allowedPrefix)
	}
	return normalized, nil
}
