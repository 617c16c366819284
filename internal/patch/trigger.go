package patch

import (
	"fmt"
	"regexp"
	"strings"
)

// Trigger decides whether a rule applies to a line.
type Trigger interface {
	Match(line string) bool
}

// TriggerFunc adapts a function to Trigger.
type TriggerFunc func(line string) bool

// Match implements Trigger.
func (f TriggerFunc) Match(line string) bool { return f(line) }

type containsTrigger []string

func (c containsTrigger) Match(line string) bool {
	for _, sub := range c {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

// Contains matches lines containing any of the given substrings.
func Contains(subs ...string) Trigger {
	return containsTrigger(subs)
}

type bareTrigger string

func (b bareTrigger) Match(line string) bool {
	return strings.TrimSpace(line) == string(b)
}

// Bare matches a line whose only non-blank content is s, such as a lone "}".
func Bare(s string) Trigger {
	return bareTrigger(s)
}

type regexpTrigger struct {
	re *regexp.Regexp
}

func (r regexpTrigger) Match(line string) bool {
	return r.re.MatchString(line)
}

// Regexp wraps a compiled expression.
func Regexp(re *regexp.Regexp) Trigger {
	return regexpTrigger{re: re}
}

// Matches compiles pattern into a Trigger.
func Matches(pattern string) (Trigger, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("patch: invalid trigger pattern %q: %w", pattern, err)
	}
	return Regexp(re), nil
}

// MustMatch is Matches for patterns known at compile time.
func MustMatch(pattern string) Trigger {
	t, err := Matches(pattern)
	if err != nil {
		panic(err)
	}
	return t
}
