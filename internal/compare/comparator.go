// Package compare aligns a candidate trace with a reference trace and finds
// the first divergence.
//
// Lines are compared positionally: step n pairs line n of the reference with
// line n of the candidate after diagnostic lines were dropped. For every pair
// the field rules run in declaration order; the first rule that fails to
// extract or yields unequal values ends the run. Nothing is buffered and no
// attempt is made to resynchronize after a divergence.
package compare

import (
	"context"
	"fmt"
	"strconv"

	"logcompare/internal/config"
	"logcompare/internal/field"
	"logcompare/internal/linesource"
	"logcompare/internal/trace"
)

// LineReader yields lines in order until ok is false.
type LineReader interface {
	Next() (line linesource.Line, ok bool, err error)
}

// skipCounter is implemented by readers that drop diagnostic lines.
type skipCounter interface {
	Skipped() int
}

// Options tune a Comparator.
type Options struct {
	Rules   *field.Set // nil means field.Default()
	Lenient bool       // tolerate extraction failures, see Result.Warnings
	Context int        // matched pairs kept for the report
}

// Comparator owns the two readers and the step counter for one run.
type Comparator struct {
	reference LineReader
	candidate LineReader
	rules     []field.Rule
	opts      Options
}

// New returns a Comparator. The candidate reader is expected to filter its
// own diagnostic lines.
func New(reference, candidate LineReader, opts Options) *Comparator {
	if opts.Rules == nil {
		opts.Rules = field.Default()
	}
	return &Comparator{
		reference: reference,
		candidate: candidate,
		rules:     opts.Rules.Rules(),
		opts:      opts,
	}
}

// Run compares the logs until the first divergence or until both end.
// Divergences are reported in Result; err is only set for read failures and
// context cancellation.
func (c *Comparator) Run(ctx context.Context) (Result, error) {
	t := trace.FromContext(ctx)
	span := trace.Begin(t, trace.ScopeRun, "compare", 0)

	res, err := c.run(ctx, t, span.ID())
	if sc, ok := c.candidate.(skipCounter); ok {
		res.Skipped = sc.Skipped()
	}

	if err != nil {
		span.WithExtra("error", err.Error()).End("aborted")
		return res, err
	}
	span.WithExtra("outcome", res.Outcome.Kind.String()).
		WithExtra("matched", strconv.Itoa(res.Matched)).
		End(fmt.Sprintf("line %d", res.Outcome.Line))
	return res, nil
}

func (c *Comparator) run(ctx context.Context, t trace.Tracer, spanID uint64) (Result, error) {
	var (
		res  Result
		hist = newRing(c.opts.Context)
		last *Pair
	)
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		exp, expOK, err := c.reference.Next()
		if err != nil {
			return res, fmt.Errorf("reference log: line %d: %w", line, err)
		}
		got, gotOK, err := c.candidate.Next()
		if err != nil {
			return res, fmt.Errorf("candidate log: line %d: %w", line, err)
		}

		if !expOK && !gotOK {
			res.Outcome = Outcome{Kind: Match, Line: line - 1}
			return res, nil
		}
		if !expOK || !gotOK {
			out := Outcome{
				Kind:        LengthMismatch,
				Line:        line,
				Expected:    exp,
				Got:         got,
				ExpectedEOF: !expOK,
				GotEOF:      !gotOK,
				Context:     hist.snapshot(),
			}
			// the last pair read is always part of a length report
			if len(out.Context) == 0 && last != nil {
				out.Context = []Pair{*last}
			}
			c.traceDivergence(t, spanID, out)
			res.Outcome = out
			return res, nil
		}

		pair := Pair{Line: line, Expected: exp, Got: got}
		last = &pair

		out, ok := c.check(t, spanID, pair)
		if ok {
			res.Matched++
			hist.push(pair)
			trace.Point(t, trace.ScopeLine, "line", strconv.Itoa(line), spanID, nil)
			continue
		}

		out.Context = hist.snapshot()
		c.traceDivergence(t, spanID, out)
		if out.Kind == ExtractionFailure && c.opts.Lenient {
			res.Warnings = append(res.Warnings, out)
			continue
		}
		res.Outcome = out
		return res, nil
	}
}

// check applies every rule to the pair. ok is false on the first rule that
// fails to extract or disagrees.
func (c *Comparator) check(t trace.Tracer, spanID uint64, p Pair) (Outcome, bool) {
	for _, r := range c.rules {
		em, eok := r.Extract(p.Expected.Text)
		gm, gok := r.Extract(p.Got.Text)

		out := Outcome{
			Line:          p.Line,
			Field:         r.Name,
			Label:         r.Label,
			Expected:      p.Expected,
			Got:           p.Got,
			ExpectedMatch: em,
			GotMatch:      gm,
			ExpectedOK:    eok,
			GotOK:         gok,
		}
		if !eok || !gok {
			out.Kind = ExtractionFailure
			return out, false
		}

		trace.Point(t, trace.ScopeField, "field:"+r.Name, "", spanID, map[string]string{
			"expected": em.Value,
			"got":      gm.Value,
		})
		if em.Value != gm.Value {
			out.Kind = FieldMismatch
			return out, false
		}
	}
	return Outcome{Kind: Match, Line: p.Line}, true
}

func (c *Comparator) traceDivergence(t trace.Tracer, spanID uint64, out Outcome) {
	extra := map[string]string{"line": strconv.Itoa(out.Line)}
	if out.Field != "" {
		extra["field"] = out.Field
	}
	trace.Point(t, trace.ScopeRun, out.Kind.String(), out.Label, spanID, extra)
}

// File opens the two logs named by cfg, compares them and closes both.
func File(ctx context.Context, cfg config.Config) (Result, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return Result{}, err
	}

	ref, err := linesource.Open(cfg.ReferencePath())
	if err != nil {
		return Result{}, fmt.Errorf("reference log: %w", err)
	}
	defer ref.Close()

	cand, err := linesource.Open(cfg.CandidatePath(), linesource.WithDiagnosticPrefix(cfg.DiagnosticPrefix))
	if err != nil {
		return Result{}, fmt.Errorf("candidate log: %w", err)
	}
	defer cand.Close()

	res, err := New(ref, cand, Options{
		Rules:   rules,
		Lenient: cfg.Lenient,
		Context: cfg.Context,
	}).Run(ctx)
	res.Reference = cfg.ReferencePath()
	res.Candidate = cfg.CandidatePath()
	return res, err
}
