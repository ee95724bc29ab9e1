package urlutil

import (
	"net/url"
	"sort"
	"strings"
)

// SortedKeys returns the keys of params in ascending byte order.
func SortedKeys(params map[string]string) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CanonicalQuery serializes params as "k1=v1&k2=v2" with keys sorted.
// Values are written verbatim, without percent-encoding, so the result is
// suitable as hash input rather than as a wire query string.
//
// Properties:
//   - Deterministic: insertion order of params never changes the output
//   - Empty params produce the empty string
func CanonicalQuery(params map[string]string) string {
	var b strings.Builder
	for i, k := range SortedKeys(params) {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// EncodeQuery is the percent-encoded wire form of params, keys sorted.
func EncodeQuery(params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}

// NormalizeBase applies a deterministic normalization to a base URL so that
// relative paths can be resolved against it.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//   - Fragments and query parameters are removed
//   - Path always ends with exactly one "/"
func NormalizeBase(base url.URL) url.URL {
	// Create a copy to avoid mutating the original
	canonical := base

	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	canonical.Path = stripTrailingSlash(canonical.Path) + "/"
	canonical.RawPath = ""

	canonical.Fragment = ""
	canonical.RawFragment = ""
	canonical.RawQuery = ""
	canonical.ForceQuery = false

	return canonical
}

// Resolve joins a relative path onto a normalized base.
func Resolve(base url.URL, path string) string {
	b := NormalizeBase(base)
	return b.String() + strings.TrimLeft(path, "/")
}

// lowerASCII converts ASCII characters to lowercase without allocating.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 0 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
