package patch

import (
	"regexp"
	"strings"
)

// Action produces the new content of a matched line.
type Action interface {
	Apply(line string) string
}

// ActionFunc adapts a function to Action.
type ActionFunc func(line string) string

// Apply implements Action.
func (f ActionFunc) Apply(line string) string { return f(line) }

type replaceLine string

func (r replaceLine) Apply(string) string { return string(r) }

// ReplaceLine swaps the whole line for s.
func ReplaceLine(s string) Action {
	return replaceLine(s)
}

type substitute struct {
	re   *regexp.Regexp
	repl string
}

func (s substitute) Apply(line string) string {
	return s.re.ReplaceAllString(line, s.repl)
}

// Substitute rewrites every match of re within the line using regexp
// expansion syntax ($1, ${name}) in repl.
func Substitute(re *regexp.Regexp, repl string) Action {
	return substitute{re: re, repl: repl}
}

type replaceText struct {
	old, new string
}

func (r replaceText) Apply(line string) string {
	return strings.Replace(line, r.old, r.new, 1)
}

// ReplaceText rewrites the first literal occurrence of old, keeping the rest
// of the line (indentation included) intact.
func ReplaceText(old, new string) Action {
	return replaceText{old: old, new: new}
}
