// Package report renders comparison results for people and for harnesses.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"logcompare/internal/compare"
	"logcompare/internal/linesource"
)

// PassMessage is printed when the logs agree.
const PassMessage = "Passed successfully"

// TextOptions tune the plain-text renderer.
type TextOptions struct {
	Color   bool // emit ANSI colours
	Verbose bool // add run statistics after the result
}

type palette struct {
	fail, pass, warn *color.Color
	label, marker    lipgloss.Style
	faint            lipgloss.Style
	color            bool
}

func newPalette(w io.Writer, enabled bool) palette {
	p := palette{
		fail:  color.New(color.FgRed, color.Bold),
		pass:  color.New(color.FgGreen, color.Bold),
		warn:  color.New(color.FgYellow),
		color: enabled,
	}
	for _, c := range []*color.Color{p.fail, p.pass, p.warn} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	r := lipgloss.NewRenderer(w)
	if enabled {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	p.label = r.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	p.marker = r.NewStyle().Foreground(lipgloss.Color("1"))
	p.faint = r.NewStyle().Faint(true)
	return p
}

func (p palette) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Text writes the human-readable report for res.
func Text(w io.Writer, res compare.Result, opts TextOptions) error {
	p := newPalette(w, opts.Color)
	var b strings.Builder

	for _, warn := range res.Warnings {
		b.WriteString(p.warn.Sprintf("Warning, something broke at line %d (%s)", warn.Line, extractionDetail(warn)))
		b.WriteString("\n")
	}

	out := res.Outcome
	if out.Kind == compare.Match {
		b.WriteString(p.pass.Sprint(PassMessage))
		b.WriteString("\n")
	} else {
		writeDivergence(&b, p, res)
	}

	if opts.Verbose {
		fmt.Fprintf(&b, "\nlines compared: %d\n", res.Matched)
		fmt.Fprintf(&b, "diagnostic lines skipped: %d\n", res.Skipped)
		if len(res.Warnings) > 0 {
			fmt.Fprintf(&b, "malformed lines tolerated: %d\n", len(res.Warnings))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeDivergence(b *strings.Builder, p palette, res compare.Result) {
	out := res.Outcome
	b.WriteString(p.fail.Sprint(Headline(out)))
	if detail := Detail(out); detail != "" {
		b.WriteString(" (")
		b.WriteString(detail)
		b.WriteString(")")
	}
	b.WriteString("\n")
	if out.Got.Number != 0 && out.Got.Number != out.Line {
		fmt.Fprintf(b, "candidate line %d after %d skipped diagnostic lines\n", out.Got.Number, res.Skipped)
	}
	b.WriteString("\n")

	if len(out.Context) > 0 {
		b.WriteString(p.render(p.label, "CONTEXT:"))
		b.WriteString("\n")
		for _, pair := range out.Context {
			b.WriteString(p.render(p.faint, fmt.Sprintf("%6d | %s", pair.Line, pair.Expected.Text)))
			b.WriteString("\n")
			if pair.Got.Text != pair.Expected.Text {
				b.WriteString(p.render(p.faint, fmt.Sprintf("%6s ~ %s", "", pair.Got.Text)))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString(p.render(p.label, "EXPECTED:"))
	b.WriteString("\n")
	writeLine(b, p, out.Expected, out.ExpectedEOF)
	b.WriteString(p.render(p.label, "GOT:"))
	b.WriteString("\n")
	writeLine(b, p, out.Got, out.GotEOF)
	if out.Kind == compare.FieldMismatch {
		b.WriteString(p.render(p.marker, Marker(out.Got.Text, out.GotMatch.Start, out.GotMatch.End)))
		b.WriteString("\n")
	}
}

func writeLine(b *strings.Builder, p palette, line linesource.Line, eof bool) {
	if eof {
		b.WriteString(p.render(p.faint, "(end of log)"))
	} else {
		b.WriteString(line.Text)
	}
	b.WriteString("\n")
}

// Headline returns the first line of a failure report.
func Headline(out compare.Outcome) string {
	switch out.Kind {
	case compare.Match:
		return PassMessage
	case compare.ExtractionFailure:
		return fmt.Sprintf("Error, something broke at line %d", out.Line)
	case compare.LengthMismatch:
		return fmt.Sprintf("Error, logs differ in length at line %d", out.Line)
	default:
		return fmt.Sprintf("Error, found mismatched log at line %d", out.Line)
	}
}

// Detail explains which field or which log decided the outcome.
func Detail(out compare.Outcome) string {
	switch out.Kind {
	case compare.FieldMismatch:
		return fmt.Sprintf("field %s: expected %s, got %s", out.Label, out.ExpectedValue(), out.GotValue())
	case compare.ExtractionFailure:
		return extractionDetail(out)
	case compare.LengthMismatch:
		if out.GotEOF {
			return "candidate log ended first"
		}
		return "reference log ended first"
	}
	return ""
}

func extractionDetail(out compare.Outcome) string {
	switch {
	case !out.ExpectedOK && !out.GotOK:
		return fmt.Sprintf("field %s not found in either line", out.Label)
	case !out.ExpectedOK:
		return fmt.Sprintf("field %s not found in reference line", out.Label)
	default:
		return fmt.Sprintf("field %s not found in candidate line", out.Label)
	}
}

// Marker returns a row that places carets under line[start:end] when printed
// beneath line. Tabs are kept so the row lines up in a terminal.
func Marker(line string, start, end int) string {
	if start < 0 || start > len(line) || end < start || end > len(line) {
		return ""
	}
	var b strings.Builder
	for _, r := range line[:start] {
		if r == '\t' {
			b.WriteRune('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := runewidth.StringWidth(line[start:end])
	if width < 1 {
		width = 1
	}
	b.WriteString(strings.Repeat("^", width))
	return b.String()
}
