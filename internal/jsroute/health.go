package jsroute

import (
	"confpatch/internal/patch"
	"sort"
	"strings"
	"unicode"
)

const (
	// DefaultRoute is the health route path.
	DefaultRoute = "/api/health"
	// DefaultAnchor is the path of the catch-all the route must precede.
	DefaultAnchor = "/api/*"
)

// HealthRoute keeps exactly one app.get health handler directly in front of
// the first app.all catch-all for Anchor.
type HealthRoute struct {
	Route  string
	Anchor string
}

// HealthResult reports what Apply did. Line numbers are 1-based; Removed
// refers to the input, InsertedAt to the output.
type HealthResult struct {
	AnchorFound bool
	Removed     []int
	// RemovedLines counts every dropped line, blank separators included.
	RemovedLines int
	InsertedAt   int
	Fallback     bool
}

func (h *HealthRoute) route() string {
	if h.Route == "" {
		return DefaultRoute
	}
	return h.Route
}

func (h *HealthRoute) anchor() string {
	if h.Anchor == "" {
		return DefaultAnchor
	}
	return h.Anchor
}

// Block returns the handler lines, blank separator included.
func (h *HealthRoute) Block() []string {
	return []string{
		"app.get('" + h.route() + "', (req, res) => {",
		"  res.status(200).json({ ok: true, status: 'healthy', ts: new Date().toISOString() });",
		"});",
		"",
	}
}

func (h *HealthRoute) routePrefixes() []string {
	r := h.route()
	return []string{"app.get('" + r + "'", `app.get("` + r + `"`, "app.get(`" + r + "`", "app.get(" + r}
}

func (h *HealthRoute) anchorPrefixes() []string {
	a := h.anchor()
	return []string{"app.all('" + a + "'", `app.all("` + a + `"`}
}

func (h *HealthRoute) isRoute(s Statement) bool {
	for _, p := range h.routePrefixes() {
		if !s.HasPrefix(p) {
			continue
		}
		rest := s.Compact[len(p):]
		if closesRegexp(rest) || !continuesPath(rest) {
			return true
		}
	}
	return false
}

func (h *HealthRoute) isAnchor(s Statement) bool {
	for _, p := range h.anchorPrefixes() {
		if s.HasPrefix(p) {
			return true
		}
	}
	return false
}

// continuesPath is true when rest extends an unquoted path, as in
// "/api/healthz" following "/api/health".
func continuesPath(rest string) bool {
	if rest == "" {
		return false
	}
	r := rune(rest[0])
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-_/.", r)
}

// closesRegexp is true when rest ends a regular expression literal such as
// /api/health/ or /api/health$/i and the handler arguments follow.
func closesRegexp(rest string) bool {
	rest = strings.TrimPrefix(rest, "$")
	if !strings.HasPrefix(rest, "/") {
		return false
	}
	rest = strings.TrimLeft(rest[1:], "dgimsuvy")
	return strings.HasPrefix(rest, ",") || strings.HasPrefix(rest, ")")
}

// Apply edits doc in place. Existing handlers for the route are removed
// wherever they are, each with one blank line that directly follows it, and
// a fresh handler is inserted before the anchor. Running it on its own
// output changes nothing. Without an anchor the document is left alone.
func (h *HealthRoute) Apply(doc *patch.Document) (*HealthResult, error) {
	stmts, err := Split(doc.String())
	if err != nil {
		return h.applyLines(doc)
	}
	res := &HealthResult{}
	anchor := -1
	for i, s := range stmts {
		if h.isAnchor(s) {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return res, nil
	}
	res.AnchorFound = true
	insertAt := stmts[anchor].StartLine - 1

	type span struct{ start, end int }
	var spans []span
	for i, s := range stmts {
		if !h.isRoute(s) || sharesLine(stmts, i) {
			continue
		}
		sp := span{s.StartLine - 1, s.EndLine - 1}
		if next := sp.end + 1; next < doc.Len() && strings.TrimSpace(doc.Lines[next]) == "" {
			sp.end = next
		}
		spans = append(spans, sp)
		res.Removed = append(res.Removed, s.StartLine)
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })
	for _, sp := range spans {
		n := doc.RemoveRange(sp.start, sp.end)
		res.RemovedLines += n
		if sp.start < insertAt {
			insertAt -= n
		}
	}

	block := h.Block()
	doc.InsertBefore(insertAt, block...)
	res.InsertedAt = insertAt + 1
	return res, nil
}

// applyLines is the line-oriented variant used when the file cannot be
// split into statements. A matching line is dropped together with the two
// lines after it.
func (h *HealthRoute) applyLines(doc *patch.Document) (*HealthResult, error) {
	res := &HealthResult{Fallback: true}
	anchor := patch.Contains(h.anchorPrefixes()...)
	for _, line := range doc.Lines {
		if anchor.Match(line) {
			res.AnchorFound = true
			break
		}
	}
	if !res.AnchorFound {
		return res, nil
	}
	rules := &patch.Rules{
		Remove:          patch.Contains("app.get("+h.route(), "app.get('"+h.route()+"'"),
		RemoveFollowing: 2,
		Insert:          &patch.Insertion{Trigger: anchor, Lines: h.Block()},
	}
	out, err := rules.Apply(doc)
	if err != nil {
		return nil, err
	}
	res.RemovedLines = out.Removed
	res.InsertedAt = out.InsertedAt
	return res, nil
}
