// Package main is the entry point for the key2pdf CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// conversionError marks failures past argument parsing so main can pick
// the right exit code: 2 for usage mistakes, 1 for conversion failures.
type conversionError struct{ err error }

func (e *conversionError) Error() string { return e.err.Error() }
func (e *conversionError) Unwrap() error { return e.err }

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "key2pdf: %v\n", err)
		var ce *conversionError
		if errors.As(err, &ce) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	var opts cliOptions
	cmd := &cobra.Command{
		Use:   "key2pdf <input.key>",
		Short: "Convert legacy presentation archives to PDF",
		Long: `key2pdf reads a legacy presentation archive and renders every visible
slide as one vector PDF page. Text is laid out with the original fonts
when they are bundled in the archive, and falls back to the standard
PDF base fonts otherwise.

By default malformed or unsupported elements are skipped with a warning
so a damaged deck still converts; use --strict to abort on the first
degraded element instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			if err := run(cmd, &opts); err != nil {
				return &conversionError{err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output PDF path (default: input with .pdf extension)")
	cmd.Flags().StringVar(&opts.pages, "pages", "", `slides to convert, e.g. "1,3-5,8-" (default: all visible)`)
	cmd.Flags().IntVar(&opts.workers, "workers", runtime.NumCPU(), "parallel slide layout workers")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "abort on the first malformed or unsupported element")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log per-element diagnostics")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress everything but errors")

	return cmd
}
