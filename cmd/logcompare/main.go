package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"logcompare/internal/version"
)

// newRootCmd builds the command tree. The root command compares the two logs
// found in the optional positional directory.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "logcompare [dir]",
		Short: "Compare an emulator CPU trace against a reference trace",
		Long: `logcompare checks a candidate execution trace line by line against a
trusted reference trace and reports the first line and field where they
diverge. Candidate lines starting with a tab are treated as debug output
and skipped.`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runCompare,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = version.Version

	root.AddCommand(newBatchCmd())
	root.AddCommand(newVersionCmd())

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("config", "", "path to logcompare.toml (default: searched upwards from the working directory)")
	pf.String("fields", "", "comma separated fields to compare; prefix with + to append (e.g. +cyc)")
	pf.Bool("lenient", false, "report malformed lines as warnings and keep going")
	pf.Int("context", 0, "number of matched line pairs to show before a divergence")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "print nothing, report through the exit code only")
	pf.Bool("timings", false, "show timing information")
	pf.String("trace", "", "trace output path (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|run|line|field)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.String("cpu-profile", "", "write a CPU profile to the given path")
	pf.String("mem-profile", "", "write a heap profile to the given path on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to the given path")

	root.Flags().String("format", "pretty", "report format (pretty|json|msgpack)")
	root.Flags().Bool("verbose", false, "print run statistics after the result")

	return root
}

// main exits 0 when the logs match, 2-4 for a divergence and 1 for any other
// error.
func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintf(os.Stderr, "logcompare: %v\n", err)
	os.Exit(1)
}

// exitError carries a non-zero exit status for an outcome that was already
// reported.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
