package urlutil

import (
	"net/url"
	"testing"
)

func TestCanonicalQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]string
		expected string
	}{
		{
			name:     "empty",
			input:    map[string]string{},
			expected: "",
		},
		{
			name:     "single",
			input:    map[string]string{"handles": "alice"},
			expected: "handles=alice",
		},
		{
			name:     "sorted by key",
			input:    map[string]string{"time": "1", "apiKey": "k", "handles": "alice"},
			expected: "apiKey=k&handles=alice&time=1",
		},
		{
			name:     "values are not escaped",
			input:    map[string]string{"handles": "a;b", "q": "x y"},
			expected: "handles=a;b&q=x y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalQuery(tt.input); got != tt.expected {
				t.Errorf("CanonicalQuery() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCanonicalQueryIgnoresInsertionOrder(t *testing.T) {
	a := map[string]string{}
	a["z"] = "1"
	a["a"] = "2"
	a["m"] = "3"

	b := map[string]string{}
	b["m"] = "3"
	b["z"] = "1"
	b["a"] = "2"

	for i := 0; i < 20; i++ {
		if CanonicalQuery(a) != CanonicalQuery(b) {
			t.Fatalf("CanonicalQuery differs: %q vs %q", CanonicalQuery(a), CanonicalQuery(b))
		}
	}
}

func TestEncodeQuery(t *testing.T) {
	got := EncodeQuery(map[string]string{"q": "x y", "a": "1"})
	if got != "a=1&q=x+y" {
		t.Errorf("EncodeQuery() = %q", got)
	}
}

func TestNormalizeBase(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"adds trailing slash", "https://codeforces.com/api", "https://codeforces.com/api/"},
		{"keeps single slash", "https://codeforces.com/api/", "https://codeforces.com/api/"},
		{"collapses slashes", "https://codeforces.com/api///", "https://codeforces.com/api/"},
		{"root", "https://codeforces.com", "https://codeforces.com/"},
		{"scheme and host lowercased", "HTTPS://CodeForces.COM/", "https://codeforces.com/"},
		{"default port dropped", "https://codeforces.com:443/api", "https://codeforces.com/api/"},
		{"custom port kept", "http://127.0.0.1:8080", "http://127.0.0.1:8080/"},
		{"query and fragment removed", "https://codeforces.com/api?x=1#top", "https://codeforces.com/api/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", tt.input, err)
			}
			result := NormalizeBase(*u)
			if result.String() != tt.expected {
				t.Errorf("NormalizeBase(%q) = %q, want %q", tt.input, result.String(), tt.expected)
			}
		})
	}
}

func TestNormalizeBaseDoesNotMutateInput(t *testing.T) {
	input, _ := url.Parse("HTTPS://Example.COM/api?x=1")
	original := *input

	NormalizeBase(*input)

	if input.String() != original.String() {
		t.Error("NormalizeBase mutated the input URL")
	}
}

func TestResolve(t *testing.T) {
	base, _ := url.Parse("https://codeforces.com")
	if got := Resolve(*base, "/contest/1/my"); got != "https://codeforces.com/contest/1/my" {
		t.Errorf("Resolve() = %q", got)
	}
	api, _ := url.Parse("http://127.0.0.1:9000/api")
	if got := Resolve(*api, "user.info"); got != "http://127.0.0.1:9000/api/user.info" {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestLowerASCII(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello", "hello"},
		{"HTTPS", "https"},
		{"already-lower", "already-lower"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := lowerASCII(tt.input)
			if result != tt.expected {
				t.Errorf("lowerASCII(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestStripTrailingSlash(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/path/", "/path"},
		{"/path///", "/path"},
		{"/path", "/path"},
		{"/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := stripTrailingSlash(tt.input)
			if result != tt.expected {
				t.Errorf("stripTrailingSlash(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
