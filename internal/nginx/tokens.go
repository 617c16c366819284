package nginx

import (
	"confpatch/internal/patch"
	"fmt"
	"regexp"
	"strings"
)

const directiveIndent = "    "

var (
	commentedTokensOff = regexp.MustCompile(`(?m)^[ \t]*#[ \t]*(server_tokens[ \t]+off[ \t]*;)`)
	activeTokensLine   = regexp.MustCompile(`(?m)^[ \t]*server_tokens[ \t]+[^;#\n]+;`)
	// The value may sit on a later line than the name; whitespace, line
	// breaks included, is kept as is.
	tokensValue = regexp.MustCompile(`(server_tokens\s+)[^;#\s]+(?:[ \t]+[^;#\s]+)*(\s*;)`)
	httpOpening = regexp.MustCompile(`http\s*\{`)
)

// ServerTokens makes sure exactly one active server_tokens directive with
// Value is present.
type ServerTokens struct {
	Value string
}

// ServerTokensResult describes which step, if any, changed the file.
type ServerTokensResult struct {
	Uncommented bool
	// Rewritten lists lines whose value was changed (1-based).
	Rewritten []int
	// InsertedAt is the 1-based line of an inserted directive, 0 if none.
	InsertedAt int
	// NoHTTP is set when the directive was missing and no http block exists.
	NoHTTP   bool
	Fallback bool
}

// Changed reports whether any step edited the document.
func (r *ServerTokensResult) Changed() bool {
	return r.Uncommented || len(r.Rewritten) > 0 || r.InsertedAt > 0
}

func (s *ServerTokens) value() string {
	if s.Value == "" {
		return "off"
	}
	return s.Value
}

func (s *ServerTokens) directive() string {
	return "server_tokens " + s.value() + ";"
}

// Apply edits doc in place. A commented "# server_tokens off;" is only
// restored when no directive is active, so the edit never creates a
// duplicate. Whether to insert is decided from the state after that step.
func (s *ServerTokens) Apply(doc *patch.Document) (*ServerTokensResult, error) {
	res := &ServerTokensResult{}
	cfg, err := Parse(doc.String())
	if err != nil {
		return s.applyLines(doc, res)
	}
	if len(cfg.Find("server_tokens")) == 0 && s.value() == "off" {
		res.Uncommented = s.uncomment(doc)
		if res.Uncommented {
			if cfg, err = Parse(doc.String()); err != nil {
				return nil, err
			}
		}
	}

	active := cfg.Find("server_tokens")
	if len(active) > 0 {
		for _, d := range active {
			if d.Arg(0) == s.value() && len(d.Args) == 1 {
				continue
			}
			changed, err := s.rewrite(doc, d)
			if err != nil {
				return nil, err
			}
			if changed {
				res.Rewritten = append(res.Rewritten, d.Line)
			}
		}
		return res, nil
	}

	http := cfg.Top("http")
	if len(http) == 0 {
		res.NoHTTP = true
		return res, nil
	}
	block := http[0]
	if block.OpenLine < 1 || block.OpenLine > doc.Len() {
		return nil, fmt.Errorf("nginx: http block at line %d is outside the document", block.OpenLine)
	}
	if block.CloseLine == block.OpenLine {
		// http { ... } on a single line
		idx := block.OpenLine - 1
		doc.Lines[idx] = strings.Replace(doc.Lines[idx], "{", "{ "+s.directive(), 1)
		res.InsertedAt = block.OpenLine
		return res, nil
	}
	doc.InsertAfter(block.OpenLine-1, directiveIndent+s.directive())
	res.InsertedAt = block.OpenLine + 1
	return res, nil
}

// rewrite sets the value of d over the lines it spans. It reports false
// when the text was already right or could not be matched.
func (s *ServerTokens) rewrite(doc *patch.Document, d *Directive) (bool, error) {
	end := d.EndLine
	if end < d.Line {
		end = d.Line
	}
	if d.Line < 1 || end > doc.Len() {
		return false, fmt.Errorf("nginx: server_tokens at lines %d-%d is outside the document", d.Line, end)
	}
	segment := strings.Join(doc.Lines[d.Line-1:end], "\n")
	m := tokensValue.FindStringSubmatchIndex(segment)
	if m == nil {
		return false, nil
	}
	updated := segment[:m[3]] + s.value() + segment[m[4]:]
	if updated == segment {
		return false, nil
	}
	copy(doc.Lines[d.Line-1:end], strings.Split(updated, "\n"))
	return true, nil
}

// uncomment restores the first "# server_tokens off;" at the standard
// directive indent.
func (s *ServerTokens) uncomment(doc *patch.Document) bool {
	sub := &patch.Substitution{Pattern: commentedTokensOff, Replacement: directiveIndent + "${1}", Limit: 1}
	return sub.Apply(doc) > 0
}

// applyLines is the regex-only variant used when the file does not parse.
func (s *ServerTokens) applyLines(doc *patch.Document, res *ServerTokensResult) (*ServerTokensResult, error) {
	res.Fallback = true
	if !activeTokensLine.MatchString(doc.String()) && s.value() == "off" {
		res.Uncommented = s.uncomment(doc)
	}
	if activeTokensLine.MatchString(doc.String()) {
		return res, nil
	}
	rules := &patch.Rules{Insert: &patch.Insertion{
		Trigger: patch.Regexp(httpOpening),
		Lines:   []string{directiveIndent + s.directive()},
		After:   true,
	}}
	out, err := rules.Apply(doc)
	if err != nil {
		return nil, err
	}
	if out.Inserted == 0 {
		res.NoHTTP = true
	}
	res.InsertedAt = out.InsertedAt
	return res, nil
}
