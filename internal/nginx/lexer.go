package nginx

import (
	"confpatch/internal/patch"
	"fmt"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceCode = iota + 1
	commentCode
	openCode
	closeCode
	terminatorCode
	doubleQuotedCode
	singleQuotedCode
	wordCode
)

var (
	whitespaceToken   = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	commentToken      = parsly.NewToken(commentCode, "#comment", &commentMatcher{})
	openToken         = parsly.NewToken(openCode, "{", matcher.NewByte('{'))
	closeToken        = parsly.NewToken(closeCode, "}", matcher.NewByte('}'))
	terminatorToken   = parsly.NewToken(terminatorCode, ";", matcher.NewByte(';'))
	doubleQuotedToken = parsly.NewToken(doubleQuotedCode, `"..."`, matcher.NewByteQuote('"', '\\'))
	singleQuotedToken = parsly.NewToken(singleQuotedCode, `'...'`, matcher.NewByteQuote('\'', '\\'))
	wordToken         = parsly.NewToken(wordCode, "word", &wordMatcher{})
)

// commentMatcher matches '#' up to, not including, the end of line.
type commentMatcher struct{}

func (m *commentMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= len(input) || input[pos] != '#' {
		return 0
	}
	i := pos
	for i < len(input) && input[i] != '\n' && input[i] != '\r' {
		i++
	}
	return i - pos
}

// wordMatcher matches a bare nginx word: anything up to whitespace or one
// of the structural bytes. Variables such as ${host} keep their braces.
type wordMatcher struct{}

func (m *wordMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	i := pos
	for i < len(input) {
		c := input[i]
		switch c {
		case ' ', '\t', '\n', '\r', '\v', '\f', ';', '"', '\'':
			return i - pos
		case '{':
			if i > pos && input[i-1] == '$' {
				i = skipVariable(input, i)
				continue
			}
			return i - pos
		case '}':
			return i - pos
		case '#':
			if i == pos {
				return 0
			}
		}
		i++
	}
	return i - pos
}

func skipVariable(input []byte, open int) int {
	for i := open; i < len(input); i++ {
		if input[i] == '}' {
			return i + 1
		}
	}
	return len(input)
}

type token struct {
	code   int
	text   string
	offset int
}

// SyntaxError reports input the tokenizer or parser cannot make sense of.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("nginx: line %d: %s", e.Line, e.Msg)
}

func tokenize(input []byte, lines *patch.LineIndex) ([]token, error) {
	cursor := parsly.NewCursor("", input, 0)
	var tokens []token
	for {
		match := cursor.MatchAfterOptional(whitespaceToken, commentToken, openToken, closeToken, terminatorToken, doubleQuotedToken, singleQuotedToken, wordToken)
		switch match.Code {
		case parsly.EOF:
			return tokens, nil
		case parsly.Invalid:
			return nil, &SyntaxError{Line: lines.Line(cursor.Pos), Msg: "unexpected input"}
		case commentCode:
			continue
		}
		text := match.Text(cursor)
		tokens = append(tokens, token{code: match.Code, text: text, offset: cursor.Pos - len(text)})
	}
}
