// Package nginx holds a minimal nginx configuration parser and the
// directive-level patches built on it.
//
// The parser only locates directives and blocks so that patches can target
// exact lines. It does not validate directive names or argument counts and
// never reformats the source.
package nginx

import (
	"confpatch/internal/patch"
	"strings"
)

// Directive is one nginx statement. Lines are 1-based.
type Directive struct {
	Name string
	Args []string
	Line int
	// EndLine is the line holding the terminating ";" or the opening "{".
	EndLine int

	// Block is non-nil for block directives such as server or http.
	Block     []*Directive
	OpenLine  int
	CloseLine int

	Parent *Directive
}

// IsBlock reports whether the directive carries a { ... } body.
func (d *Directive) IsBlock() bool {
	return d.OpenLine > 0
}

// Arg returns the i-th argument or "".
func (d *Directive) Arg(i int) string {
	if i < len(d.Args) {
		return d.Args[i]
	}
	return ""
}

// Children returns the direct children with the given name.
func (d *Directive) Children(name string) []*Directive {
	return filter(d.Block, name)
}

// Find walks the subtree depth first and returns every directive called name.
func (d *Directive) Find(name string) []*Directive {
	return find(d.Block, name)
}

// Config is a parsed configuration file.
type Config struct {
	Directives []*Directive
}

// Find walks the whole file depth first.
func (c *Config) Find(name string) []*Directive {
	return find(c.Directives, name)
}

// Top returns top level directives with the given name.
func (c *Config) Top(name string) []*Directive {
	return filter(c.Directives, name)
}

func filter(list []*Directive, name string) []*Directive {
	var out []*Directive
	for _, d := range list {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

func find(list []*Directive, name string) []*Directive {
	var out []*Directive
	for _, d := range list {
		if d.Name == name {
			out = append(out, d)
		}
		if d.IsBlock() {
			out = append(out, find(d.Block, name)...)
		}
	}
	return out
}

// Parse reads nginx configuration text.
func Parse(text string) (*Config, error) {
	input := []byte(text)
	lines := patch.NewLineIndex(input)
	tokens, err := tokenize(input, lines)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, lines: lines}
	directives, err := p.parseBlock(nil)
	if err != nil {
		return nil, err
	}
	return &Config{Directives: directives}, nil
}

type parser struct {
	tokens []token
	pos    int
	lines  *patch.LineIndex
}

func (p *parser) parseBlock(parent *Directive) ([]*Directive, error) {
	var out []*Directive
	var current *Directive
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		switch tok.code {
		case openCode:
			if current == nil {
				return nil, &SyntaxError{Line: p.lines.Line(tok.offset), Msg: `unexpected "{"`}
			}
			current.OpenLine = p.lines.Line(tok.offset)
			current.EndLine = current.OpenLine
			body, err := p.parseBlock(current)
			if err != nil {
				return nil, err
			}
			current.Block = body
			out = append(out, current)
			current = nil
		case closeCode:
			if current != nil {
				return nil, &SyntaxError{Line: p.lines.Line(tok.offset), Msg: `unexpected "}"`}
			}
			if parent == nil {
				return nil, &SyntaxError{Line: p.lines.Line(tok.offset), Msg: `unbalanced "}"`}
			}
			parent.CloseLine = p.lines.Line(tok.offset)
			return out, nil
		case terminatorCode:
			if current == nil {
				// stray ";" is tolerated by nginx
				continue
			}
			current.EndLine = p.lines.Line(tok.offset)
			out = append(out, current)
			current = nil
		default:
			word := unquote(tok)
			if current == nil {
				current = &Directive{Name: word, Line: p.lines.Line(tok.offset), Parent: parent}
				continue
			}
			current.Args = append(current.Args, word)
		}
	}
	if current != nil {
		return nil, &SyntaxError{Line: current.Line, Msg: "directive " + current.Name + ` is not terminated by ";"`}
	}
	if parent != nil {
		return nil, &SyntaxError{Line: parent.OpenLine, Msg: "block " + parent.Name + " is not closed"}
	}
	return out, nil
}

func unquote(tok token) string {
	switch tok.code {
	case doubleQuotedCode, singleQuotedCode:
		if len(tok.text) >= 2 {
			return tok.text[1 : len(tok.text)-1]
		}
	}
	return tok.text
}

// ListensOn reports whether a server block has a listen directive for port,
// written either as "80", "[::]:80" or "addr:80".
func ListensOn(server *Directive, port string) bool {
	for _, listen := range server.Children("listen") {
		addr := listen.Arg(0)
		if addr == port || strings.HasSuffix(addr, ":"+port) {
			return true
		}
	}
	return false
}
