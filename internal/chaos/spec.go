// Package chaos builds and decodes chaos directives.
//
// A directive is an ordered, comma-joined list of component:value tokens
// (e.g. "lat:2500,err:0.03,cpu:400") carried to the target service as a
// "chaos" query parameter. The driver treats component values as opaque
// strings; only the target interprets them.
package chaos

import (
	"net/url"
	"strings"
)

// Component keys in the order they appear in an assembled directive.
const (
	KeyLatency   = "lat"
	KeyErrorRate = "err"
	KeyCPU       = "cpu"
)

// Spec is an immutable chaos directive. The zero value is the empty
// directive, which produces no query parameter at all.
type Spec struct {
	raw string
}

// Assemble builds a Spec from configuration values.
//
// If full is non-empty it is used verbatim and the component values are
// ignored. Otherwise the non-empty components are joined in the fixed
// order latency, error rate, cpu. All-empty inputs yield the empty Spec.
func Assemble(full, latency, errorRate, cpu string) Spec {
	if full != "" {
		return Spec{raw: full}
	}

	var tokens []string
	if latency != "" {
		tokens = append(tokens, KeyLatency+":"+latency)
	}
	if errorRate != "" {
		tokens = append(tokens, KeyErrorRate+":"+errorRate)
	}
	if cpu != "" {
		tokens = append(tokens, KeyCPU+":"+cpu)
	}
	return Spec{raw: strings.Join(tokens, ",")}
}

// String returns the raw directive string.
func (s Spec) String() string {
	return s.raw
}

// Empty reports whether the directive carries no components.
func (s Spec) Empty() bool {
	return s.raw == ""
}

// AppendToURL returns the request target for the given base URL.
//
// An empty Spec leaves the base URL untouched. A non-empty Spec appends
// "?chaos=" followed by the percent-encoded directive, so decoding the
// query value reproduces the directive exactly.
func AppendToURL(base string, s Spec) string {
	if s.Empty() {
		return base
	}
	return base + "?chaos=" + url.QueryEscape(s.raw)
}
