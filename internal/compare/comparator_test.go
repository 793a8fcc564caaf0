package compare

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"logcompare/internal/config"
	"logcompare/internal/field"
	"logcompare/internal/linesource"
	"logcompare/internal/trace"
)

var nestest = []string{
	"C000  4C F5 C5  JMP $C5F5                       A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7",
	"C5F5  A2 00     LDX #$00                        A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 30 CYC:10",
	"C5F7  86 00     STX $00 = 00                    A:00 X:00 Y:00 P:26 SP:FD PPU:  0, 36 CYC:12",
	"C5F9  86 10     STX $10 = 00                    A:00 X:00 Y:00 P:26 SP:FD PPU:  0, 45 CYC:15",
	"C5FB  86 11     STX $11 = 00                    A:00 X:00 Y:00 P:26 SP:FD PPU:  0, 54 CYC:18",
	"C5FD  20 2D C7  JSR $C72D                       A:00 X:00 Y:00 P:26 SP:FD PPU:  0, 63 CYC:21",
}

func join(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func run(t *testing.T, ref, cand []string, opts Options) Result {
	t.Helper()
	res, err := New(
		linesource.New(strings.NewReader(join(ref))),
		linesource.New(strings.NewReader(join(cand)), linesource.WithDiagnosticPrefix("\t")),
		opts,
	).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func with(lines []string, idx int, old, repl string) []string {
	out := append([]string(nil), lines...)
	out[idx] = strings.Replace(out[idx], old, repl, 1)
	return out
}

type summary struct {
	Kind          Kind
	Line          int
	Field         string
	Expected      string
	Got           string
	ExpectedValue string
	GotValue      string
}

func summarize(o Outcome) summary {
	return summary{
		Kind:          o.Kind,
		Line:          o.Line,
		Field:         o.Field,
		Expected:      o.Expected.Text,
		Got:           o.Got.Text,
		ExpectedValue: o.ExpectedValue(),
		GotValue:      o.GotValue(),
	}
}

func TestIdenticalLogsPass(t *testing.T) {
	res := run(t, nestest, nestest, Options{})
	if !res.Passed() {
		t.Fatalf("expected pass, got %+v", res.Outcome)
	}
	if res.Matched != len(nestest) || res.Outcome.Line != len(nestest) {
		t.Fatalf("Matched = %d, Line = %d, want %d", res.Matched, res.Outcome.Line, len(nestest))
	}
}

func TestEmptyLogsPass(t *testing.T) {
	res := run(t, nil, nil, Options{})
	if !res.Passed() || res.Matched != 0 {
		t.Fatalf("expected pass on empty logs, got %+v", res)
	}
}

func TestRegisterMismatch(t *testing.T) {
	ref := []string{"C000  4C F5 C5  A:00 X:00 Y:00 P:24 SP:FD"}
	cand := []string{"C000  4C F5 C5  A:00 X:01 Y:00 P:24 SP:FD"}
	res := run(t, ref, cand, Options{})
	want := summary{
		Kind:          FieldMismatch,
		Line:          1,
		Field:         field.NameX,
		Expected:      ref[0],
		Got:           cand[0],
		ExpectedValue: "00",
		GotValue:      "01",
	}
	if diff := cmp.Diff(want, summarize(res.Outcome)); diff != "" {
		t.Fatalf("outcome mismatch (-want +got):\n%s", diff)
	}
	if res.Outcome.Label != "X" {
		t.Fatalf("Label = %q, want X", res.Outcome.Label)
	}
	if got := cand[0][res.Outcome.GotMatch.Start:res.Outcome.GotMatch.End]; got != "01" {
		t.Fatalf("GotMatch offsets cover %q", got)
	}
}

func TestSingleFieldChange(t *testing.T) {
	cases := []struct {
		field    string
		old, new string
		expValue string
		gotValue string
	}{
		{field.NamePC, "C5F7  86", "C5F7  87", "C5F7  86", "C5F7  87"},
		{field.NameA, "A:00", "A:10", "00", "10"},
		{field.NameX, "X:00", "X:FF", "00", "FF"},
		{field.NameY, "Y:00", "Y:01", "00", "01"},
		{field.NameP, " P:26", " P:A6", "26", "A6"},
		{field.NameSP, "SP:FD", "SP:FB", "FD", "FB"},
	}
	const k = 2 // zero-based, reported as line 3
	for _, tc := range cases {
		cand := with(nestest, k, tc.old, tc.new)
		res := run(t, nestest, cand, Options{})
		want := summary{
			Kind:          FieldMismatch,
			Line:          k + 1,
			Field:         tc.field,
			Expected:      nestest[k],
			Got:           cand[k],
			ExpectedValue: tc.expValue,
			GotValue:      tc.gotValue,
		}
		if diff := cmp.Diff(want, summarize(res.Outcome)); diff != "" {
			t.Fatalf("%s: outcome mismatch (-want +got):\n%s", tc.field, diff)
		}
		if res.Matched != k {
			t.Fatalf("%s: Matched = %d, want %d", tc.field, res.Matched, k)
		}
	}
}

func TestFirstFieldInDeclarationOrderWins(t *testing.T) {
	cand := with(with(nestest, 1, "SP:FD", "SP:00"), 1, "A:00", "A:01")
	res := run(t, nestest, cand, Options{})
	if res.Outcome.Kind != FieldMismatch || res.Outcome.Field != field.NameA {
		t.Fatalf("expected mismatch on a, got %s on %q", res.Outcome.Kind, res.Outcome.Field)
	}
}

func TestCustomRuleComparesRawBytes(t *testing.T) {
	pc, _ := field.Builtin(field.NamePC)
	rules, err := field.NewSet(pc, field.MustRule("z", "", `Z:(?P<value>.)`))
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	res := run(t, []string{"C000  4C Z:\xfe"}, []string{"C000  4C Z:\xff"}, Options{Rules: rules})
	got := summarize(res.Outcome)
	want := summary{
		Kind:          FieldMismatch,
		Line:          1,
		Field:         "z",
		Expected:      "C000  4C Z:\xfe",
		Got:           "C000  4C Z:\xff",
		ExpectedValue: "\xfe",
		GotValue:      "\xff",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("outcome mismatch (-want +got):\n%s", diff)
	}
}

func TestCycleCounterIgnoredByDefault(t *testing.T) {
	cand := with(nestest, 3, "CYC:15", "CYC:16")
	if res := run(t, nestest, cand, Options{}); !res.Passed() {
		t.Fatalf("cycle counter must not be compared by default: %+v", res.Outcome)
	}

	rules, err := field.Select(append(append([]string(nil), field.DefaultNames...), field.NameCyc), nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	res := run(t, nestest, cand, Options{Rules: rules})
	if res.Outcome.Kind != FieldMismatch || res.Outcome.Field != field.NameCyc || res.Outcome.Line != 4 {
		t.Fatalf("expected cyc mismatch at line 4, got %+v", summarize(res.Outcome))
	}
}

func TestCandidateShorter(t *testing.T) {
	cand := nestest[:len(nestest)-1]
	res := run(t, nestest, cand, Options{})
	out := res.Outcome
	if out.Kind != LengthMismatch {
		t.Fatalf("Kind = %s, want length-mismatch", out.Kind)
	}
	if out.Line != len(cand)+1 {
		t.Fatalf("Line = %d, want %d", out.Line, len(cand)+1)
	}
	if !out.GotEOF || out.ExpectedEOF {
		t.Fatalf("expected candidate to be exhausted: %+v", out)
	}
	if out.Expected.Text != nestest[len(nestest)-1] || out.Got.Text != "" {
		t.Fatalf("unexpected lines %q / %q", out.Expected.Text, out.Got.Text)
	}
	if len(out.Context) != 1 || out.Context[0].Got.Text != cand[len(cand)-1] {
		t.Fatalf("length report must carry the last pair read, got %+v", out.Context)
	}
}

func TestReferenceShorter(t *testing.T) {
	res := run(t, nestest[:2], nestest, Options{})
	out := res.Outcome
	if out.Kind != LengthMismatch || out.Line != 3 || !out.ExpectedEOF || out.GotEOF {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Got.Text != nestest[2] {
		t.Fatalf("Got = %q, want %q", out.Got.Text, nestest[2])
	}
}

func TestLengthMismatchOnFirstLine(t *testing.T) {
	res := run(t, nil, nestest[:1], Options{})
	if res.Outcome.Kind != LengthMismatch || res.Outcome.Line != 1 || len(res.Outcome.Context) != 0 {
		t.Fatalf("unexpected outcome %+v", res.Outcome)
	}
}

func TestMalformedCandidateLine(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"truncated": "C5F7  8",
		"no regs":   "C5F7  86 00     STX $00 = 00",
	}
	for name, bad := range cases {
		cand := append([]string(nil), nestest...)
		cand[2] = bad
		res := run(t, nestest, cand, Options{})
		out := res.Outcome
		if out.Kind != ExtractionFailure {
			t.Fatalf("%s: Kind = %s, want extraction-failure", name, out.Kind)
		}
		if out.Line != 3 || out.Expected.Text != nestest[2] || out.Got.Text != bad {
			t.Fatalf("%s: unexpected outcome %+v", name, summarize(out))
		}
		if !out.ExpectedOK || out.GotOK {
			t.Fatalf("%s: expected only the candidate side to fail", name)
		}
	}
}

func TestMalformedReferenceLine(t *testing.T) {
	ref := append([]string(nil), nestest...)
	ref[0] = "garbage"
	res := run(t, ref, nestest, Options{})
	if res.Outcome.Kind != ExtractionFailure || res.Outcome.Field != field.NamePC || res.Outcome.ExpectedOK {
		t.Fatalf("unexpected outcome %+v", res.Outcome)
	}
}

func TestExtractionFailureIsFatal(t *testing.T) {
	cand := append([]string(nil), nestest...)
	cand[1] = ""
	cand = with(cand, 4, "X:00", "X:01")
	res := run(t, nestest, cand, Options{})
	if res.Outcome.Kind != ExtractionFailure || res.Outcome.Line != 2 {
		t.Fatalf("strict run must stop at line 2, got %s at %d", res.Outcome.Kind, res.Outcome.Line)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("strict run records no warnings")
	}
}

func TestLenientContinuesPastMalformedLines(t *testing.T) {
	cand := append([]string(nil), nestest...)
	cand[1] = ""
	res := run(t, nestest, cand, Options{Lenient: true})
	if !res.Passed() {
		t.Fatalf("lenient run should pass, got %+v", summarize(res.Outcome))
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Line != 2 || res.Warnings[0].Kind != ExtractionFailure {
		t.Fatalf("unexpected warnings %+v", res.Warnings)
	}
	if res.Matched != len(nestest)-1 {
		t.Fatalf("Matched = %d, want %d", res.Matched, len(nestest)-1)
	}

	// value mismatches stay fatal
	cand = with(cand, 4, "X:00", "X:01")
	res = run(t, nestest, cand, Options{Lenient: true})
	if res.Outcome.Kind != FieldMismatch || res.Outcome.Line != 5 {
		t.Fatalf("expected field mismatch at 5, got %s at %d", res.Outcome.Kind, res.Outcome.Line)
	}
}

func inject(lines []string, at int, diag ...string) []string {
	out := append([]string(nil), lines[:at]...)
	out = append(out, diag...)
	return append(out, lines[at:]...)
}

func TestDiagnosticLinesAreTransparent(t *testing.T) {
	base := with(nestest, 4, "Y:00", "Y:02")
	injected := inject(inject(base, 3, "\tDEBUG: breakpoint hit"), 0, "\tSet PC to $C000", "\t\tdump")

	want := run(t, nestest, base, Options{})
	got := run(t, nestest, injected, Options{})
	if diff := cmp.Diff(summarize(want.Outcome), summarize(got.Outcome)); diff != "" {
		t.Fatalf("diagnostic lines changed the result (-without +with):\n%s", diff)
	}
	if got.Skipped != 3 {
		t.Fatalf("Skipped = %d, want 3", got.Skipped)
	}
	// physical position of the candidate line accounts for skipped lines
	if got.Outcome.Got.Number != 8 || got.Outcome.Expected.Number != 5 {
		t.Fatalf("line numbers = %d / %d, want 5 / 8", got.Outcome.Expected.Number, got.Outcome.Got.Number)
	}
}

func TestDebugLineBetweenIdenticalLines(t *testing.T) {
	ref := nestest[:2]
	cand := []string{nestest[0], "\tDEBUG: breakpoint hit", nestest[1]}
	res := run(t, ref, cand, Options{})
	if !res.Passed() || res.Outcome.Line != 2 {
		t.Fatalf("expected pass over 2 lines, got %+v", res.Outcome)
	}
}

func TestContextLines(t *testing.T) {
	cand := with(nestest, 4, "A:00", "A:01")
	res := run(t, nestest, cand, Options{Context: 2})
	ctx := res.Outcome.Context
	if len(ctx) != 2 || ctx[0].Line != 3 || ctx[1].Line != 4 {
		t.Fatalf("unexpected context %+v", ctx)
	}
	if ctx[1].Expected.Text != nestest[3] || ctx[1].Got.Text != cand[3] {
		t.Fatalf("context pair holds wrong lines: %+v", ctx[1])
	}

	res = run(t, nestest, cand, Options{})
	if len(res.Outcome.Context) != 0 {
		t.Fatalf("no context requested, got %+v", res.Outcome.Context)
	}
}

// failingReader returns lines and then an error instead of EOF.
type failingReader struct {
	lines []string
	pos   int
}

var errBoom = errors.New("boom")

func (r *failingReader) Next() (linesource.Line, bool, error) {
	if r.pos >= len(r.lines) {
		return linesource.Line{}, false, errBoom
	}
	r.pos++
	return linesource.Line{Number: r.pos, Text: r.lines[r.pos-1]}, true, nil
}

func TestLaterLinesNeverRead(t *testing.T) {
	ref := &failingReader{lines: nestest[:2]}
	cand := &failingReader{lines: with(nestest[:2], 1, "X:00", "X:09")}
	res, err := New(ref, cand, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run read past the divergence: %v", err)
	}
	if res.Outcome.Kind != FieldMismatch || res.Outcome.Line != 2 {
		t.Fatalf("unexpected outcome %+v", res.Outcome)
	}
}

func TestReadErrorPropagates(t *testing.T) {
	ref := &failingReader{lines: nestest[:1]}
	cand := linesource.New(strings.NewReader(join(nestest)))
	_, err := New(ref, cand, Options{}).Run(context.Background())
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if !strings.Contains(err.Error(), "reference log: line 2") {
		t.Fatalf("error lacks position: %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(
		linesource.New(strings.NewReader(join(nestest))),
		linesource.New(strings.NewReader(join(nestest))),
		Options{},
	).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTraceEvents(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelLine, trace.FormatText)
	ctx := trace.WithTracer(context.Background(), tr)
	cand := with(nestest, 1, "X:00", "X:01")
	if _, err := New(
		linesource.New(strings.NewReader(join(nestest))),
		linesource.New(strings.NewReader(join(cand))),
		Options{},
	).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"compare", "line (1)", "field-mismatch (X)", "outcome=field-mismatch"} {
		if !strings.Contains(out, want) {
			t.Fatalf("trace output lacks %q:\n%s", want, out)
		}
	}
}

func TestExitCodes(t *testing.T) {
	want := map[Kind]int{Match: 0, FieldMismatch: 2, ExtractionFailure: 3, LengthMismatch: 4}
	for k, code := range want {
		if k.ExitCode() != code {
			t.Fatalf("%s.ExitCode() = %d, want %d", k, k.ExitCode(), code)
		}
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "expected.log"), []byte(join(nestest)), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cand := inject(nestest, 2, "\tDEBUG: breakpoint hit")
	if err := os.WriteFile(filepath.Join(dir, "cpu.log"), []byte(join(cand)), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := config.Default()
	cfg.Dir = dir
	res, err := File(context.Background(), cfg)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if !res.Passed() || res.Skipped != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Reference != filepath.Join(dir, "expected.log") {
		t.Fatalf("Reference = %q", res.Reference)
	}

	cfg.Candidate = "missing.log"
	if _, err := File(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "candidate log") {
		t.Fatalf("expected candidate open error, got %v", err)
	}
}
