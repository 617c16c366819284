package nginx

import (
	"confpatch/internal/patch"
	"strings"
)

// Redirect rewrites the target of return directives inside the server
// blocks that listen on Port.
type Redirect struct {
	Port string
	From string
	To   string
}

// RedirectResult lists the rewritten lines (1-based).
type RedirectResult struct {
	Lines    []int
	Fallback bool
}

// Apply edits doc in place. When the file cannot be parsed it falls back to
// a line scan: enter the block at "listen <port>;", rewrite the first
// "return 301 <from>;" and stop at the block's bare closing brace.
func (r *Redirect) Apply(doc *patch.Document) (*RedirectResult, error) {
	cfg, err := Parse(doc.String())
	if err != nil {
		return r.applyLines(doc)
	}
	res := &RedirectResult{}
	for _, server := range cfg.Find("server") {
		if !server.IsBlock() || !ListensOn(server, r.Port) {
			continue
		}
		for _, ret := range server.Find("return") {
			if len(ret.Args) < 2 || ret.Args[1] != r.From {
				continue
			}
			if n := r.rewrite(doc, ret); n > 0 {
				res.Lines = append(res.Lines, n)
			}
		}
	}
	return res, nil
}

// rewrite replaces From in the first source line of ret that carries it.
func (r *Redirect) rewrite(doc *patch.Document, ret *Directive) int {
	end := ret.EndLine
	if end < ret.Line {
		end = ret.Line
	}
	for n := ret.Line; n <= end && n <= doc.Len(); n++ {
		line := doc.Lines[n-1]
		if strings.Contains(line, r.From) {
			doc.Lines[n-1] = strings.Replace(line, r.From, r.To, 1)
			return n
		}
	}
	return 0
}

func (r *Redirect) applyLines(doc *patch.Document) (*RedirectResult, error) {
	rules := &patch.Rules{
		BlockEntry:  patch.Contains("listen "+r.Port+";", "listen [::]:"+r.Port+";"),
		Mutate:      patch.Contains("return 301 " + r.From + ";"),
		Action:      patch.ReplaceText(r.From, r.To),
		Cardinality: patch.FirstMatch,
	}
	out, err := rules.Apply(doc)
	if err != nil {
		return nil, err
	}
	return &RedirectResult{Lines: out.Mutated, Fallback: true}, nil
}
