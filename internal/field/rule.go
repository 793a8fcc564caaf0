package field

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule extracts at most one value from a trace line.
type Rule struct {
	Name    string         // stable identifier, e.g. "x"
	Label   string         // human label, e.g. "X"
	Pattern *regexp.Regexp // compiled extraction pattern
	group   int            // capture group holding the value
}

// Match is a value extracted from a line together with its byte offsets.
type Match struct {
	Value string
	Start int
	End   int
}

// NewRule compiles pattern and returns a Rule named name.
// An empty label defaults to the upper-cased name.
func NewRule(name, label, pattern string) (Rule, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Rule{}, fmt.Errorf("field rule: empty name")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("field rule %q: %w", name, err)
	}
	if label == "" {
		label = strings.ToUpper(name)
	}
	group := re.SubexpIndex("value")
	if group < 0 {
		group = 0
		if re.NumSubexp() > 0 {
			group = 1
		}
	}
	return Rule{Name: name, Label: label, Pattern: re, group: group}, nil
}

// MustRule is like NewRule but panics on error. Used for built-in rules.
func MustRule(name, label, pattern string) Rule {
	r, err := NewRule(name, label, pattern)
	if err != nil {
		panic(err)
	}
	return r
}

// Extract applies the rule to line. ok is false when the pattern does not
// match or the value group did not participate in the match.
func (r Rule) Extract(line string) (Match, bool) {
	if r.Pattern == nil {
		return Match{}, false
	}
	loc := r.Pattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return Match{}, false
	}
	start, end := loc[2*r.group], loc[2*r.group+1]
	if start < 0 {
		return Match{}, false
	}
	return Match{Value: line[start:end], Start: start, End: end}, true
}

// String returns the label followed by the pattern source.
func (r Rule) String() string {
	if r.Pattern == nil {
		return r.Label
	}
	return r.Label + " /" + r.Pattern.String() + "/"
}
