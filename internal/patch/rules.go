package patch

import (
	"errors"
	"regexp"
)

// Cardinality controls how many lines a mutation rewrites.
type Cardinality int

const (
	// FirstMatch rewrites the first qualifying line and stops mutating.
	FirstMatch Cardinality = iota
	// FirstPerBlock rewrites the first qualifying line of each target block.
	FirstPerBlock
	// EveryMatch rewrites every qualifying line.
	EveryMatch
)

// Insertion adds literal lines next to the first line matching Trigger.
type Insertion struct {
	Trigger Trigger
	Lines   []string
	// After places the lines after the trigger line instead of before it.
	After bool
}

// Rules is one line-scan pass over a Document. All fields are optional; a
// zero Rules copies the document unchanged.
type Rules struct {
	// Remove drops each matching line together with the RemoveFollowing
	// lines after it, whatever they contain.
	Remove          Trigger
	RemoveFollowing int

	// BlockEntry opens a target block. Without it the whole document is
	// the target block.
	BlockEntry Trigger
	// BlockExit closes the target block; defaults to a bare "}".
	BlockExit Trigger

	Mutate      Trigger
	Action      Action
	Cardinality Cardinality

	Insert *Insertion
}

// Result reports what a pass did. Line numbers are 1-based positions in
// the input document.
type Result struct {
	Removed      int
	Mutated      []int
	Inserted     int
	InsertedAt   int
	BlocksOpened int
}

// Changed reports whether the pass edited anything.
func (r Result) Changed() bool {
	return r.Removed > 0 || len(r.Mutated) > 0 || r.Inserted > 0
}

var errMissingAction = errors.New("patch: mutate trigger configured without an action")

// Validate checks the rule set for inconsistent configuration.
func (r *Rules) Validate() error {
	if r.Mutate != nil && r.Action == nil {
		return errMissingAction
	}
	if r.RemoveFollowing < 0 {
		return errors.New("patch: negative RemoveFollowing")
	}
	if r.Insert != nil && r.Insert.Trigger == nil {
		return errors.New("patch: insertion without a trigger")
	}
	return nil
}

// Apply runs the pass over doc in place.
func (r *Rules) Apply(doc *Document) (Result, error) {
	var res Result
	if err := r.Validate(); err != nil {
		return res, err
	}
	exit := r.BlockExit
	if exit == nil {
		exit = Bare("}")
	}

	out := make([]string, 0, len(doc.Lines))
	skip := 0
	inserted := false
	mutating := r.Mutate != nil
	inBlock := r.BlockEntry == nil

	for i, line := range doc.Lines {
		if r.Remove != nil && r.Remove.Match(line) {
			skip = r.RemoveFollowing
			res.Removed++
			continue
		}
		if skip > 0 {
			skip--
			res.Removed++
			continue
		}

		if mutating && r.BlockEntry != nil && r.BlockEntry.Match(line) {
			inBlock = true
			res.BlocksOpened++
			out = append(out, line)
			continue
		}

		if mutating && inBlock && r.Mutate.Match(line) {
			out = append(out, r.Action.Apply(line))
			res.Mutated = append(res.Mutated, i+1)
			switch r.Cardinality {
			case FirstMatch:
				mutating = false
			case FirstPerBlock:
				if r.BlockEntry != nil {
					inBlock = false
				} else {
					mutating = false
				}
			}
			continue
		}

		if r.Insert != nil && !inserted && r.Insert.Trigger.Match(line) {
			inserted = true
			res.Inserted = len(r.Insert.Lines)
			if r.Insert.After {
				out = append(out, line)
				res.InsertedAt = len(out) + 1
				out = append(out, r.Insert.Lines...)
			} else {
				res.InsertedAt = len(out) + 1
				out = append(out, r.Insert.Lines...)
				out = append(out, line)
			}
			continue
		}

		if inBlock && r.BlockEntry != nil && exit.Match(line) {
			inBlock = false
		}
		out = append(out, line)
	}
	doc.Lines = out
	return res, nil
}

// Substitution is a whole-document regular-expression replacement. It is
// not line scoped: the expression sees the full text, so (?m) anchors and
// multi-line patterns behave as with any regexp over a string.
type Substitution struct {
	Pattern     *regexp.Regexp
	Replacement string
	// Limit caps the number of replacements; zero means all.
	Limit int
}

// Apply rewrites doc and returns the number of replacements made.
func (s *Substitution) Apply(doc *Document) int {
	text := doc.String()
	n := -1
	if s.Limit > 0 {
		n = s.Limit
	}
	matches := s.Pattern.FindAllStringSubmatchIndex(text, n)
	if len(matches) == 0 {
		return 0
	}
	out := make([]byte, 0, len(text))
	last := 0
	for _, m := range matches {
		out = append(out, text[last:m[0]]...)
		out = s.Pattern.ExpandString(out, s.Replacement, text, m)
		last = m[1]
	}
	out = append(out, text[last:]...)
	doc.SetText(string(out))
	return len(matches)
}
