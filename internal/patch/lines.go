package patch

import "sort"

// LineIndex maps byte offsets of a text to 1-based line numbers. It is
// shared by the parsers that turn tokens back into Document lines.
type LineIndex struct {
	starts []int
}

// NewLineIndex records where each line of input starts.
func NewLineIndex(input []byte) *LineIndex {
	starts := []int{0}
	for i, c := range input {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts}
}

// Line returns the 1-based line holding offset.
func (l *LineIndex) Line(offset int) int {
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset })
}
