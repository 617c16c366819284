package jsroute

import (
	"confpatch/internal/patch"
	"fmt"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceCode = iota + 1
	lineCommentCode
	blockCommentCode
	stringCode
	punctCode
	textCode
)

var (
	whitespaceToken   = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	lineCommentToken  = parsly.NewToken(lineCommentCode, "//comment", &lineCommentMatcher{})
	blockCommentToken = parsly.NewToken(blockCommentCode, "/*comment*/", &blockCommentMatcher{})
	singleQuoteToken  = parsly.NewToken(stringCode, `'...'`, matcher.NewByteQuote('\'', '\\'))
	doubleQuoteToken  = parsly.NewToken(stringCode, `"..."`, matcher.NewByteQuote('"', '\\'))
	templateToken     = parsly.NewToken(stringCode, "`...`", matcher.NewByteQuote('`', '\\'))
	punctToken        = parsly.NewToken(punctCode, "punct", &punctMatcher{})
	textToken         = parsly.NewToken(textCode, "text", &textMatcher{})
)

type lineCommentMatcher struct{}

func (m *lineCommentMatcher) Match(cursor *parsly.Cursor) int {
	input, pos := cursor.Input, cursor.Pos
	if !hasPrefix(input, pos, '/', '/') {
		return 0
	}
	i := pos
	for i < len(input) && input[i] != '\n' {
		i++
	}
	return i - pos
}

// blockCommentMatcher matches /* ... */; an unterminated comment does not match.
type blockCommentMatcher struct{}

func (m *blockCommentMatcher) Match(cursor *parsly.Cursor) int {
	input, pos := cursor.Input, cursor.Pos
	if !hasPrefix(input, pos, '/', '*') {
		return 0
	}
	for i := pos + 2; i+1 < len(input); i++ {
		if input[i] == '*' && input[i+1] == '/' {
			return i + 2 - pos
		}
	}
	return 0
}

type punctMatcher struct{}

func (m *punctMatcher) Match(cursor *parsly.Cursor) int {
	if cursor.Pos < len(cursor.Input) && isPunct(cursor.Input[cursor.Pos]) {
		return 1
	}
	return 0
}

// textMatcher takes everything else: identifiers, member chains, operators
// and numbers, up to whitespace, punctuation, a quote or a comment.
type textMatcher struct{}

func (m *textMatcher) Match(cursor *parsly.Cursor) int {
	input, pos := cursor.Input, cursor.Pos
	i := pos
	for i < len(input) {
		c := input[i]
		if isSpace(c) || isPunct(c) || c == '\'' || c == '"' || c == '`' {
			break
		}
		if hasPrefix(input, i, '/', '/') || hasPrefix(input, i, '/', '*') {
			break
		}
		i++
	}
	return i - pos
}

func isPunct(c byte) bool {
	switch c {
	case '(', ')', '{', '}', '[', ']', ';', ',':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func hasPrefix(input []byte, pos int, a, b byte) bool {
	return pos+1 < len(input) && input[pos] == a && input[pos+1] == b
}

type token struct {
	code    int
	text    string
	line    int
	endLine int
}

// SyntaxError reports source the statement splitter cannot follow, such as
// an unterminated string or unbalanced brackets.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("js: line %d: %s", e.Line, e.Msg)
}

func tokenize(input []byte) ([]token, error) {
	lines := patch.NewLineIndex(input)
	cursor := parsly.NewCursor("", input, 0)
	var tokens []token
	for {
		match := cursor.MatchAfterOptional(whitespaceToken, lineCommentToken, blockCommentToken, singleQuoteToken, doubleQuoteToken, templateToken, punctToken, textToken)
		switch match.Code {
		case parsly.EOF:
			return tokens, nil
		case parsly.Invalid:
			return nil, &SyntaxError{Line: lines.Line(cursor.Pos), Msg: "unterminated string or comment"}
		case lineCommentCode, blockCommentCode:
			continue
		}
		text := match.Text(cursor)
		start := cursor.Pos - len(text)
		tokens = append(tokens, token{code: match.Code, text: text, line: lines.Line(start), endLine: lines.Line(cursor.Pos - 1)})
	}
}
