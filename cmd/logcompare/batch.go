package main

import (
	"context"
	"fmt"
	"io"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"logcompare/internal/compare"
	"logcompare/internal/config"
	"logcompare/internal/report"
	"logcompare/internal/ui"
)

type batchEntry struct {
	dir string
	res compare.Result
	err error
}

func (e batchEntry) exitCode() int {
	if e.err != nil {
		return 1
	}
	return e.res.Outcome.Kind.ExitCode()
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch DIR...",
		Short: "Compare the logs of several directories with the same settings",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}
	cmd.Flags().Int("jobs", runtime.GOMAXPROCS(0), "maximum number of directories compared at once")
	cmd.Flags().String("ui", "auto", "live progress view on stderr (auto|on|off)")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs < 1 {
		jobs = 1
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var entries []batchEntry
	if !opts.quiet && shouldUseTUI(mode, cmd.ErrOrStderr()) {
		entries, err = runBatchWithUI(ctx, cancel, cmd.ErrOrStderr(), base, args, jobs)
		if err != nil {
			return err
		}
	} else {
		entries = compareDirs(ctx, base, args, jobs, nil)
	}

	worst := 0
	for _, e := range entries {
		worst = max(worst, e.exitCode())
	}
	if !opts.quiet {
		writeBatchSummary(cmd.OutOrStdout(), entries, opts.color)
	}
	if worst != 0 {
		return &exitError{code: worst}
	}
	return nil
}

// compareDirs runs one comparison per directory, at most jobs at a time.
// Progress goes to events when it is not nil; the channel is never closed
// here.
func compareDirs(ctx context.Context, base config.Config, dirs []string, jobs int, events chan<- ui.Event) []batchEntry {
	notify := func(ev ui.Event) {
		if events != nil {
			events <- ev
		}
	}

	entries := make([]batchEntry, len(dirs))
	// каждый прогон последователен; параллельны только каталоги
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			notify(ui.Event{Index: i, Dir: dir, Status: ui.StatusComparing})
			cfg := base
			cfg.Dir = dir
			res, err := compare.File(ctx, cfg)
			entries[i] = batchEntry{dir: dir, res: res, err: err}
			notify(entries[i].event(i))
			return nil
		})
	}
	_ = g.Wait()
	return entries
}

// runBatchWithUI draws the progress view on out while the directories are
// compared. Leaving the view cancels the remaining comparisons.
func runBatchWithUI(ctx context.Context, cancel context.CancelFunc, out io.Writer, base config.Config, dirs []string, jobs int) ([]batchEntry, error) {
	// two events per directory, so senders never block
	events := make(chan ui.Event, 2*len(dirs))
	done := make(chan []batchEntry, 1)
	go func() {
		entries := compareDirs(ctx, base, dirs, jobs, events)
		close(events)
		done <- entries
	}()

	model := ui.NewProgressModel(fmt.Sprintf("comparing %d directories", len(dirs)), dirs, events)
	final, uiErr := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx)).Run()
	if uiErr != nil || ui.Interrupted(final) {
		cancel()
	}
	entries := <-done
	if uiErr != nil {
		return entries, uiErr
	}
	return entries, nil
}

func (e batchEntry) event(index int) ui.Event {
	ev := ui.Event{Index: index, Dir: e.dir}
	switch {
	case e.err != nil:
		ev.Status, ev.Note = ui.StatusError, e.err.Error()
	case e.res.Passed():
		ev.Status = ui.StatusPassed
	default:
		ev.Status, ev.Note = ui.StatusFailed, report.Headline(e.res.Outcome)
	}
	return ev
}

func writeBatchSummary(out io.Writer, entries []batchEntry, colored bool) {
	pass := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	for _, c := range []*color.Color{pass, fail} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	passed := 0
	for _, e := range entries {
		switch {
		case e.err != nil:
			fmt.Fprintf(out, "%s %s: %v\n", fail.Sprint("ERROR"), e.dir, e.err)
		case e.res.Passed():
			passed++
			fmt.Fprintf(out, "%s  %s\n", pass.Sprint("PASS"), e.dir)
		default:
			msg := report.Headline(e.res.Outcome)
			if detail := report.Detail(e.res.Outcome); detail != "" {
				msg += " (" + detail + ")"
			}
			fmt.Fprintf(out, "%s  %s: %s\n", fail.Sprint("FAIL"), e.dir, msg)
		}
	}
	fmt.Fprintf(out, "\n%d passed, %d failed\n", passed, len(entries)-passed)
}
