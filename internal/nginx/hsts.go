package nginx

import (
	"confpatch/internal/patch"
	"regexp"
	"strings"
)

var hstsHeader = regexp.MustCompile(`(add_header\s+Strict-Transport-Security\s+)(?:"[^"]*"|'[^']*'|[^\s;"']+)`)

// DefaultHSTS is the header value applied when none is configured.
const DefaultHSTS = "max-age=86400; includeSubDomains"

// HSTS rewrites the value of every Strict-Transport-Security add_header,
// in any block, keeping spacing and trailing flags such as "always".
type HSTS struct {
	Value string
}

// Apply edits doc in place and returns the number of rewritten headers.
func (h *HSTS) Apply(doc *patch.Document) int {
	value := h.Value
	if value == "" {
		value = DefaultHSTS
	}
	sub := &patch.Substitution{
		Pattern:     hstsHeader,
		Replacement: "${1}\"" + strings.ReplaceAll(value, "$", "$$") + "\"",
	}
	return sub.Apply(doc)
}
