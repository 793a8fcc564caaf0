package report

import (
	"encoding/json"
	"fmt"
	"io"

	"fortio.org/safecast"
	"github.com/google/uuid"

	"logcompare/internal/compare"
	"logcompare/internal/linesource"
)

// LineJSON is one side of a compared step.
type LineJSON struct {
	Number uint32 `json:"number,omitempty"`
	Text   string `json:"text"`
	EOF    bool   `json:"eof,omitempty"`
}

// FieldJSON describes the deciding field.
type FieldJSON struct {
	Name           string `json:"name"`
	Label          string `json:"label"`
	Expected       string `json:"expected,omitempty"`
	Got            string `json:"got,omitempty"`
	ExpectedColumn uint32 `json:"expected_column,omitempty"`
	GotColumn      uint32 `json:"got_column,omitempty"`
	ExpectedFound  bool   `json:"expected_found"`
	GotFound       bool   `json:"got_found"`
}

// PairJSON is a matched step kept as context.
type PairJSON struct {
	Line     uint32   `json:"line"`
	Expected LineJSON `json:"expected"`
	Got      LineJSON `json:"got"`
}

// DivergenceJSON carries everything known about one divergence.
type DivergenceJSON struct {
	Kind     string     `json:"kind"`
	Line     uint32     `json:"line"`
	Message  string     `json:"message"`
	Field    *FieldJSON `json:"field,omitempty"`
	Expected LineJSON   `json:"expected"`
	Got      LineJSON   `json:"got"`
	Context  []PairJSON `json:"context,omitempty"`
}

// ResultJSON is the root object written by JSON.
type ResultJSON struct {
	RunID      string           `json:"run_id"`
	Status     string           `json:"status"`
	ExitCode   int              `json:"exit_code"`
	Reference  string           `json:"reference,omitempty"`
	Candidate  string           `json:"candidate,omitempty"`
	Matched    uint32           `json:"matched"`
	Skipped    uint32           `json:"skipped"`
	Divergence *DivergenceJSON  `json:"divergence,omitempty"`
	Warnings   []DivergenceJSON `json:"warnings,omitempty"`
}

// JSONOptions tune the JSON renderer.
type JSONOptions struct {
	RunID  string // generated when empty
	Indent bool
}

// BuildJSON converts res into its JSON representation.
func BuildJSON(res compare.Result, opts JSONOptions) (ResultJSON, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	matched, err := safecast.Conv[uint32](res.Matched)
	if err != nil {
		return ResultJSON{}, fmt.Errorf("matched count: %w", err)
	}
	skipped, err := safecast.Conv[uint32](res.Skipped)
	if err != nil {
		return ResultJSON{}, fmt.Errorf("skipped count: %w", err)
	}

	out := ResultJSON{
		RunID:     runID,
		Status:    "pass",
		ExitCode:  res.Outcome.Kind.ExitCode(),
		Reference: res.Reference,
		Candidate: res.Candidate,
		Matched:   matched,
		Skipped:   skipped,
	}
	if !res.Passed() {
		out.Status = "fail"
		d, err := buildDivergence(res.Outcome)
		if err != nil {
			return ResultJSON{}, err
		}
		out.Divergence = &d
	}
	for _, w := range res.Warnings {
		d, err := buildDivergence(w)
		if err != nil {
			return ResultJSON{}, err
		}
		out.Warnings = append(out.Warnings, d)
	}
	return out, nil
}

func buildDivergence(o compare.Outcome) (DivergenceJSON, error) {
	line, err := safecast.Conv[uint32](o.Line)
	if err != nil {
		return DivergenceJSON{}, fmt.Errorf("line number: %w", err)
	}
	d := DivergenceJSON{
		Kind:    o.Kind.String(),
		Line:    line,
		Message: Headline(o),
	}
	if detail := Detail(o); detail != "" {
		d.Message += " (" + detail + ")"
	}
	if d.Expected, err = lineJSON(o.Expected, o.ExpectedEOF); err != nil {
		return DivergenceJSON{}, err
	}
	if d.Got, err = lineJSON(o.Got, o.GotEOF); err != nil {
		return DivergenceJSON{}, err
	}
	if o.Field != "" {
		f := &FieldJSON{
			Name:          o.Field,
			Label:         o.Label,
			ExpectedFound: o.ExpectedOK,
			GotFound:      o.GotOK,
		}
		if o.ExpectedOK {
			f.Expected = o.ExpectedValue()
			if f.ExpectedColumn, err = column(o.ExpectedMatch.Start); err != nil {
				return DivergenceJSON{}, err
			}
		}
		if o.GotOK {
			f.Got = o.GotValue()
			if f.GotColumn, err = column(o.GotMatch.Start); err != nil {
				return DivergenceJSON{}, err
			}
		}
		d.Field = f
	}
	for _, p := range o.Context {
		pl, err := safecast.Conv[uint32](p.Line)
		if err != nil {
			return DivergenceJSON{}, fmt.Errorf("context line: %w", err)
		}
		pj := PairJSON{Line: pl}
		if pj.Expected, err = lineJSON(p.Expected, false); err != nil {
			return DivergenceJSON{}, err
		}
		if pj.Got, err = lineJSON(p.Got, false); err != nil {
			return DivergenceJSON{}, err
		}
		d.Context = append(d.Context, pj)
	}
	return d, nil
}

func lineJSON(l linesource.Line, eof bool) (LineJSON, error) {
	n, err := safecast.Conv[uint32](l.Number)
	if err != nil {
		return LineJSON{}, fmt.Errorf("line number: %w", err)
	}
	return LineJSON{Number: n, Text: l.Text, EOF: eof}, nil
}

// column converts a byte offset into a 1-based column.
func column(offset int) (uint32, error) {
	c, err := safecast.Conv[uint32](offset + 1)
	if err != nil {
		return 0, fmt.Errorf("column: %w", err)
	}
	return c, nil
}

// JSON writes res as a single JSON document.
func JSON(w io.Writer, res compare.Result, opts JSONOptions) error {
	payload, err := BuildJSON(res, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(payload)
}
