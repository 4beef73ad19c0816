package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slidekit/key2pdf/compose"
	"github.com/slidekit/key2pdf/convert"
	"github.com/slidekit/key2pdf/observability"
	"github.com/slidekit/key2pdf/recovery"
)

type cliOptions struct {
	input   string
	output  string
	pages   string
	workers int
	strict  bool
	verbose bool
	quiet   bool
}

func run(cmd *cobra.Command, opts *cliOptions) error {
	out := opts.output
	if out == "" {
		out = defaultOutput(opts.input)
	}

	level := observability.LevelWarn
	if opts.verbose {
		level = observability.LevelDebug
	}
	if opts.quiet {
		level = observability.LevelError
	}
	log := observability.NewConsoleLogger(cmd.ErrOrStderr(), level)

	var strategy recovery.Strategy
	if opts.strict {
		strategy = recovery.NewStrictStrategy()
	} else {
		strategy = recovery.NewLenientStrategy(log)
	}

	pages, err := compose.ParsePageRange(opts.pages)
	if err != nil {
		return err
	}

	report, err := convert.File(opts.input, out, convert.Options{
		Recovery: strategy,
		Logger:   log,
		Pages:    pages,
		Workers:  opts.workers,
	})
	if err != nil {
		return err
	}

	if !opts.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", out, convert.Describe(report))
	}
	return nil
}

// defaultOutput swaps the input's extension for .pdf, keeping the
// directory. "deck.key" becomes "deck.pdf", "deck" becomes "deck.pdf".
func defaultOutput(in string) string {
	if i := strings.LastIndexByte(in, '.'); i > strings.LastIndexByte(in, '/') {
		return in[:i] + ".pdf"
	}
	return in + ".pdf"
}
