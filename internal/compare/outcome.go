package compare

import (
	"logcompare/internal/field"
	"logcompare/internal/linesource"
)

// Kind classifies the result of comparing two logs.
type Kind uint8

const (
	// Match means every line pair agreed on every field.
	Match Kind = iota
	// FieldMismatch means a field value differs between the logs.
	FieldMismatch
	// ExtractionFailure means a field rule did not match a line.
	ExtractionFailure
	// LengthMismatch means one log ended before the other.
	LengthMismatch
)

func (k Kind) String() string {
	switch k {
	case Match:
		return "match"
	case FieldMismatch:
		return "field-mismatch"
	case ExtractionFailure:
		return "extraction-failure"
	case LengthMismatch:
		return "length-mismatch"
	}
	return "unknown"
}

// ExitCode maps the kind to the process exit status: 0 pass, 2..4 per
// divergence kind. 1 is left for usage and I/O errors.
func (k Kind) ExitCode() int {
	switch k {
	case Match:
		return 0
	case FieldMismatch:
		return 2
	case ExtractionFailure:
		return 3
	case LengthMismatch:
		return 4
	}
	return 1
}

// Pair is one compared step: the reference line and the candidate line
// that were aligned with it.
type Pair struct {
	Line     int
	Expected linesource.Line
	Got      linesource.Line
}

// Outcome describes how a run ended. For Match only Kind and Line are set.
type Outcome struct {
	Kind Kind
	Line int // comparison step, 1-based

	Field string // rule name, empty for LengthMismatch
	Label string

	Expected linesource.Line
	Got      linesource.Line

	// set for LengthMismatch: which side ran out
	ExpectedEOF bool
	GotEOF      bool

	// set for FieldMismatch, and for the side that matched on ExtractionFailure
	ExpectedMatch field.Match
	GotMatch      field.Match
	ExpectedOK    bool
	GotOK         bool

	// matched pairs preceding the divergence, oldest first
	Context []Pair
}

// ExpectedValue returns the reference value of the deciding field.
func (o Outcome) ExpectedValue() string { return o.ExpectedMatch.Value }

// GotValue returns the candidate value of the deciding field.
func (o Outcome) GotValue() string { return o.GotMatch.Value }

// Result is what a run produced.
type Result struct {
	Outcome Outcome

	Matched int // line pairs that agreed on every field
	Skipped int // candidate diagnostic lines discarded

	// Warnings holds extraction failures tolerated in lenient mode.
	Warnings []Outcome

	Reference string // reference log path when known
	Candidate string // candidate log path when known
}

// Passed reports whether the logs agreed.
func (r Result) Passed() bool { return r.Outcome.Kind == Match }
