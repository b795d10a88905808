package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/evloop/internal/arrayopt"
	"github.com/roach88/evloop/internal/driver"
	"github.com/roach88/evloop/internal/recsrc"
)

// RootOptions holds the command-line flags.
type RootOptions struct {
	Verbose    int
	Format     string // "json" | "text"
	Window     *arrayopt.Value
	NEntries   int64
	InTree     string
	OutDir     string
	PrintFreq  int64
	ParamsFile string
	Batch      bool

	// RunIDGenerator overrides the run id generator (for testing).
	// If nil, each Driver uses UUIDv7.
	RunIDGenerator driver.RunIDGenerator
	// Clock overrides time.Now in the driver (for testing).
	Clock func() time.Time
	// Opener overrides the record-source opener (for testing).
	Opener recsrc.Opener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// WindowSpec is the schema of --ewindow: two energies in keV within
// [0, 1000], sorted ascending.
var WindowSpec = arrayopt.Spec{
	Size: 2,
	Sort: true,
	Min:  arrayopt.Bound(0),
	Max:  arrayopt.Bound(1000),
}

// DefaultWindow is the --ewindow default.
var DefaultWindow = []float64{0, 500}

// NewRootCommand creates the evloop command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evloop [flags] FILE...",
		Short: "Select records in an energy window and histogram them",
		Long: `Run the energy-window analysis over one or more record files.

Each FILE is processed independently: its records are iterated in order,
records without hits or outside the energy window are skipped, and the
selected energies are histogrammed into <outdir>/<name>_out.db together
with the run summary and the selection flag counts.

Inputs may be CSV (.csv), SQLite (.db, .sqlite, .sqlite3) or YAML
(.yaml, .yml). --intree names the table or collection inside the file.

Example:
  evloop --ewindow 100,600 run042.csv
  evloop -v --nentries 10000 --outdir out --params cuts.cue run*.db`,
		Args:          requireFiles,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd, opts, args)
		},
	}

	fs := cmd.Flags()
	window, err := arrayopt.Define(fs, "ewindow", "", "energy window `E1,E2` in keV", WindowSpec, DefaultWindow)
	if err != nil {
		// WindowSpec and DefaultWindow are constants of this package.
		panic(err)
	}
	opts.Window = window
	fs.Int64Var(&opts.NEntries, "nentries", driver.DefaultMaxRecords, "maximum number of records per file (-1 for all)")
	fs.StringVar(&opts.InTree, "intree", driver.DefaultCollection, "table or collection to read inside each file")
	fs.StringVar(&opts.OutDir, "outdir", ".", "directory for output files (created if missing)")
	fs.Int64Var(&opts.PrintFreq, "printfreq", driver.DefaultPrintFreq, "progress interval in records (0 disables)")
	fs.CountVarP(&opts.Verbose, "verbose", "v", "verbose output (repeat for more)")
	fs.StringVar(&opts.ParamsFile, "params", "", "CUE file with analysis parameters")
	fs.StringVar(&opts.Format, "format", "text", "summary format (json|text)")
	fs.BoolVar(&opts.Batch, "batch", false, "non-interactive progress output (one line per update)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	})

	return cmd
}

// Execute runs evloop with args and returns the process exit code.
// Errors are reported on stderr, or as a JSON error response on stdout
// with --format json.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	used, err := cmd.ExecuteContextC(ctx)
	if err == nil {
		return ExitSuccess
	}
	code := GetExitCode(err)

	formatter := newFormatter(cmd, opts)
	if !isValidFormat(formatter.Format) {
		formatter.Format = "text"
	}
	// In JSON mode aborted runs are already part of the batch summary.
	if !(formatter.Format == "json" && code == ExitFailure) {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
	}
	// Usage is silenced for run failures; show it only when the command line was wrong.
	if code == ExitCommandError && formatter.Format == "text" {
		if used == nil {
			used = cmd
		}
		_, _ = io.WriteString(cmd.ErrOrStderr(), "\n"+used.UsageString())
	}
	return code
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose > 0,
	}
}

func requireFiles(cmd *cobra.Command, args []string) error {
	if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
		return WrapExitError(ExitCommandError, "no input files", err)
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
