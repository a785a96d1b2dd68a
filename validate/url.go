package validate

import (
	"net/url"
	"strings"
)

// allowedSchemes is the outbound scheme allow-set. Anything else
// (file, ftp, data, ...) is an SSRF vector and is rejected.
var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// BuildURL resolves source against an optional base and validates the
// result. It is the SSRF gate: protocol-relative sources are rejected
// when a base is present, relative sources must not change the host,
// and only http and https schemes pass.
func BuildURL(source, base string) (*url.URL, error) {
	if strings.TrimSpace(source) == "" {
		return nil, NewValidationError(CategoryProtocol, "source URL cannot be empty")
	}

	// A source beginning with exactly two slashes is protocol-relative:
	// resolvers treat it as "same scheme, different host", silently
	// overriding the base host. Three or more slashes are a path and
	// collapse below.
	if base != "" && strings.HasPrefix(source, "//") && !strings.HasPrefix(source, "///") {
		return nil, NewValidationError(CategoryProtocol, "protocol-relative URL %q would override base host", source)
	}

	relative := strings.HasPrefix(source, "/")
	if relative {
		source = "/" + strings.TrimLeft(source, "/")
	}

	var resolved *url.URL
	var baseURL *url.URL
	var err error

	if base != "" {
		baseURL, err = url.Parse(base)
		if err != nil {
			return nil, NewValidationError(CategoryProtocol, "invalid base URL %q: %v", base, err)
		}
		ref, err := url.Parse(source)
		if err != nil {
			return nil, NewValidationError(CategoryProtocol, "invalid source URL %q: %v", source, err)
		}
		resolved = baseURL.ResolveReference(ref)
	} else {
		resolved, err = url.Parse(source)
		if err != nil {
			return nil, NewValidationError(CategoryProtocol, "invalid source URL %q: %v", source, err)
		}
	}

	if relative && baseURL != nil && resolved.Host != baseURL.Host {
		return nil, NewValidationError(CategoryProtocol,
			"relative source resolved to host %q, expected %q", resolved.Host, baseURL.Host)
	}

	if !allowedSchemes[resolved.Scheme] {
		return nil, NewValidationError(CategoryProtocol, "URL scheme %q is not allowed", resolved.Scheme+":")
	}

	return resolved, nil
}
