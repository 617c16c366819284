package patch

import (
	"strings"
)

const (
	// LF is the default line terminator.
	LF = "\n"
	// CRLF is used when the source file was written with Windows line endings.
	CRLF = "\r\n"
)

// Document is a text file held in memory as an ordered list of lines.
// Lines are split at every "\n", so line i of a Document is line i for any
// tool that counts newlines. EOL and FinalEOL remember how the source was
// laid out so that Parse(b).Bytes() reproduces b exactly.
//
// When every line ends in "\r\n" the "\r" is stripped and EOL is CRLF.
// A file mixing both terminators keeps the "\r" at the end of the lines
// that had one and uses LF for inserted lines.
type Document struct {
	Lines    []string
	EOL      string
	FinalEOL bool
}

// Parse splits content into a Document.
func Parse(content []byte) *Document {
	text := string(content)
	doc := &Document{EOL: LF}
	if text == "" {
		doc.Lines = []string{}
		return doc
	}
	lines := strings.Split(text, LF)
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
		doc.FinalEOL = true
	}
	terminated := len(lines)
	if !doc.FinalEOL {
		terminated--
	}
	if terminated > 0 && allCRLF(lines[:terminated]) {
		doc.EOL = CRLF
		for i := 0; i < terminated; i++ {
			lines[i] = strings.TrimSuffix(lines[i], "\r")
		}
	}
	doc.Lines = lines
	return doc
}

func allCRLF(lines []string) bool {
	for _, line := range lines {
		if !strings.HasSuffix(line, "\r") {
			return false
		}
	}
	return true
}

// ParseString is Parse for string input.
func ParseString(text string) *Document {
	return Parse([]byte(text))
}

// String joins the lines back using the document terminator.
func (d *Document) String() string {
	if len(d.Lines) == 0 {
		if d.FinalEOL {
			return d.EOL
		}
		return ""
	}
	text := strings.Join(d.Lines, d.eol())
	if d.FinalEOL {
		text += d.eol()
	}
	return text
}

// Bytes returns the serialized document.
func (d *Document) Bytes() []byte {
	return []byte(d.String())
}

// Len reports the number of lines.
func (d *Document) Len() int {
	return len(d.Lines)
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	lines := make([]string, len(d.Lines))
	copy(lines, d.Lines)
	return &Document{Lines: lines, EOL: d.EOL, FinalEOL: d.FinalEOL}
}

// SetText replaces the whole content, keeping the terminator style that
// the new text carries.
func (d *Document) SetText(text string) {
	*d = *ParseString(text)
}

// InsertBefore inserts lines so that the first of them ends up at index idx
// (0-based). idx == Len() appends.
func (d *Document) InsertBefore(idx int, lines ...string) {
	if idx < 0 {
		idx = 0
	}
	if idx > len(d.Lines) {
		idx = len(d.Lines)
	}
	out := make([]string, 0, len(d.Lines)+len(lines))
	out = append(out, d.Lines[:idx]...)
	out = append(out, lines...)
	out = append(out, d.Lines[idx:]...)
	d.Lines = out
}

// InsertAfter inserts lines directly after index idx (0-based).
func (d *Document) InsertAfter(idx int, lines ...string) {
	d.InsertBefore(idx+1, lines...)
}

// RemoveRange deletes lines [start, end] (0-based, inclusive) and returns
// the number of removed lines.
func (d *Document) RemoveRange(start, end int) int {
	if start < 0 {
		start = 0
	}
	if end >= len(d.Lines) {
		end = len(d.Lines) - 1
	}
	if start > end {
		return 0
	}
	d.Lines = append(d.Lines[:start], d.Lines[end+1:]...)
	return end - start + 1
}

func (d *Document) eol() string {
	if d.EOL == "" {
		return LF
	}
	return d.EOL
}
