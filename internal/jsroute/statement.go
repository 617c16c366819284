// Package jsroute finds top level statements in a JavaScript server file
// and keeps a single health route in front of the API catch-all.
//
// The splitter knows just enough JavaScript to tell where a statement
// starts and ends: strings, comments, bracket nesting and automatic
// semicolon insertion at line breaks. It does not build a syntax tree.
package jsroute

import (
	"strings"
)

// Statement is a top level statement. Lines are 1-based and inclusive.
type Statement struct {
	StartLine int
	EndLine   int
	// Compact is the statement's source with whitespace and comments
	// dropped, e.g. "app.get('/api/health',(req,res)=>{...});".
	Compact string
}

// HasPrefix reports whether the compacted source starts with prefix.
func (s Statement) HasPrefix(prefix string) bool {
	return strings.HasPrefix(s.Compact, prefix)
}

var closers = map[string]string{")": "(", "]": "[", "}": "{"}

// continuations are tokens that keep a statement going on the next line.
var continuations = map[string]bool{"else": true, "catch": true, "finally": true}

// headerKeywords take a parenthesised header followed by a body that may
// sit on the next line.
var headerKeywords = map[string]bool{"if": true, "for": true, "while": true, "with": true, "switch": true}

// Split returns the top level statements of src in source order.
func Split(src string) ([]Statement, error) {
	tokens, err := tokenize([]byte(src))
	if err != nil {
		return nil, err
	}
	var (
		out     []Statement
		stack   []string
		compact strings.Builder
		current *Statement
		header  bool
	)
	finish := func() {
		current.Compact = compact.String()
		out = append(out, *current)
		current = nil
		compact.Reset()
	}
	for i, tok := range tokens {
		if current == nil {
			current = &Statement{StartLine: tok.line}
			header = headerKeywords[tok.text]
		}
		compact.WriteString(tok.text)
		current.EndLine = tok.endLine

		closedHeader := false
		if tok.code == punctCode {
			switch tok.text {
			case "(", "[", "{":
				stack = append(stack, tok.text)
			case ")", "]", "}":
				if len(stack) == 0 || stack[len(stack)-1] != closers[tok.text] {
					return nil, &SyntaxError{Line: tok.line, Msg: "unbalanced " + tok.text}
				}
				stack = stack[:len(stack)-1]
				if header && tok.text == ")" && len(stack) == 0 {
					header = false
					closedHeader = true
				}
			case ";":
				if len(stack) == 0 && !header {
					finish()
					continue
				}
			}
		}
		if len(stack) > 0 || closedHeader || header {
			continue
		}
		if i+1 == len(tokens) {
			break
		}
		if next := tokens[i+1]; next.line > tok.endLine && endsStatement(tok, next) {
			finish()
		}
	}
	if len(stack) > 0 {
		return nil, &SyntaxError{Line: current.StartLine, Msg: "unclosed " + stack[len(stack)-1]}
	}
	if current != nil {
		finish()
	}
	return out, nil
}

// endsStatement decides whether a line break between tok and next ends the
// statement, following the usual automatic semicolon insertion rules.
func endsStatement(tok, next token) bool {
	if tok.code == textCode && strings.ContainsAny(tok.text[len(tok.text)-1:], "=+-*/%&|^!<>?:.~") {
		return false
	}
	if tok.code == punctCode && (tok.text == "," || tok.text == "(" || tok.text == "[" || tok.text == "{") {
		return false
	}
	if continuations[next.text] {
		return false
	}
	if next.code == punctCode {
		return next.text != "(" && next.text != "[" && next.text != ","
	}
	if next.code == textCode && strings.ContainsAny(next.text[:1], "=+-*/%&|^<>?:.") {
		return false
	}
	return true
}

// sharesLine reports whether statement i has a line in common with a
// neighbour.
func sharesLine(stmts []Statement, i int) bool {
	if i > 0 && stmts[i-1].EndLine >= stmts[i].StartLine {
		return true
	}
	return i+1 < len(stmts) && stmts[i+1].StartLine <= stmts[i].EndLine
}
