package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"logcompare/internal/compare"
	"logcompare/internal/observ"
	"logcompare/internal/report"
)

type outputOptions struct {
	format  string
	color   bool
	quiet   bool
	verbose bool
	timings bool
}

func readOutputOptions(cmd *cobra.Command) (outputOptions, error) {
	flags := cmd.Flags()
	var opts outputOptions

	colorStr, err := flags.GetString("color")
	if err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}
	mode, err := readColorMode(colorStr)
	if err != nil {
		return opts, err
	}
	opts.color = shouldUseColor(mode, cmd.OutOrStdout())

	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}

	// format and verbose only exist on the root command
	opts.format = "pretty"
	if f := flags.Lookup("format"); f != nil {
		opts.format = strings.ToLower(f.Value.String())
	}
	switch opts.format {
	case "pretty", "json", "msgpack":
		// supported
	default:
		return opts, fmt.Errorf("unsupported format %q (must be pretty, json or msgpack)", opts.format)
	}
	if f := flags.Lookup("verbose"); f != nil {
		opts.verbose = f.Value.String() == "true"
	}
	return opts, nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	timer := observ.NewTimer()

	phase := timer.Begin("config")
	cfg, err := resolveConfig(cmd, args)
	timer.End(phase, cfg.Path)
	if err != nil {
		return err
	}

	opts, err := readOutputOptions(cmd)
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

	phase = timer.Begin("compare")
	res, err := compare.File(cmd.Context(), cfg)
	timer.End(phase, fmt.Sprintf("%d lines", res.Matched))
	if err != nil {
		return err
	}

	phase = timer.Begin("render")
	if !opts.quiet {
		if err := render(cmd.OutOrStdout(), res, opts); err != nil {
			return err
		}
	}
	timer.End(phase, "")

	if opts.timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}

	if code := res.Outcome.Kind.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

func render(out io.Writer, res compare.Result, opts outputOptions) error {
	switch opts.format {
	case "json":
		return report.JSON(out, res, report.JSONOptions{Indent: true})
	case "msgpack":
		return report.MsgPack(out, res, report.JSONOptions{})
	}
	return report.Text(out, res, report.TextOptions{Color: opts.color, Verbose: opts.verbose})
}
