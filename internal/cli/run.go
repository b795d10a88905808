package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/evloop/internal/driver"
	"github.com/roach88/evloop/internal/energy"
	"github.com/roach88/evloop/internal/flags"
	"github.com/roach88/evloop/internal/params"
	"github.com/roach88/evloop/internal/recsrc"
)

const msgOutDir = "cannot create output directory"

// RunSummary is the JSON form of one driver.Result.
type RunSummary struct {
	RunID     string        `json:"run_id"`
	Input     string        `json:"input"`
	Output    string        `json:"output,omitempty"`
	State     string        `json:"state"`
	Accepted  int64         `json:"accepted"`
	Skipped   int64         `json:"skipped"`
	Processed int64         `json:"processed"`
	Stopped   bool          `json:"stopped,omitempty"`
	ElapsedMS int64         `json:"elapsed_ms"`
	Flags     []flags.Entry `json:"flags"`
	Error     string        `json:"error,omitempty"`
}

// BatchSummary is the payload printed after all files have run.
type BatchSummary struct {
	Runs     []RunSummary `json:"runs"`
	Finished int          `json:"finished"`
	Aborted  int          `json:"aborted"`
}

func (b BatchSummary) String() string {
	return fmt.Sprintf("%d file(s): %d finished, %d aborted", len(b.Runs), b.Finished, b.Aborted)
}

func summarize(res *driver.Result) RunSummary {
	s := RunSummary{
		RunID:     res.RunID,
		Input:     res.InputPath,
		Output:    res.OutputPath,
		State:     res.State.String(),
		Accepted:  res.Accepted,
		Skipped:   res.Skipped,
		Processed: res.Processed,
		Stopped:   res.Stopped,
		ElapsedMS: res.Elapsed.Milliseconds(),
		Flags:     res.Flags,
	}
	if res.Err != nil {
		s.Error = res.Err.Error()
	}
	return s
}

// newLogger builds the process logger: Info by default, Debug with -v,
// Debug with source locations with -vv.
func newLogger(w io.Writer, verbose int) *slog.Logger {
	level := slog.LevelInfo
	if verbose >= 1 {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose >= 2,
	}))
}

func runFiles(cmd *cobra.Command, opts *RootOptions, files []string) error {
	formatter := newFormatter(cmd, opts)

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	slog.SetDefault(logger)

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, msgOutDir, err)
	}

	p := params.Empty()
	if opts.ParamsFile != "" {
		var err error
		if p, err = params.Load(opts.ParamsFile); err != nil {
			return WrapExitError(ExitCommandError, "cannot load parameters", err)
		}
		slog.Debug("parameters loaded", "file", opts.ParamsFile, "names", p.Names())
	}

	env := recsrc.NewEnvironment(recsrc.EnvironmentOptions{
		Batch:   opts.Batch,
		Verbose: opts.Verbose,
		OutDir:  opts.OutDir,
		Logger:  logger,
	})

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var report io.Writer
	if opts.Format == "text" {
		report = cmd.OutOrStdout()
	}
	window := opts.Window.Values()
	snapshot := p.Map()
	snapshot["ewindow"] = window

	batch := BatchSummary{Runs: []RunSummary{}}
	for _, file := range files {
		if ctx.Err() != nil {
			slog.Warn("interrupted; skipping remaining files", "next", file)
			break
		}

		cfg := driver.Config{
			InputPath:  file,
			Collection: opts.InTree,
			OutDir:     opts.OutDir,
			MaxRecords: opts.NEntries,
			PrintFreq:  opts.PrintFreq,
			Verbose:    opts.Verbose,
			Params:     snapshot,
		}
		d := driver.New(cfg, env, energy.New(window, p), driverOptions(cmd, opts, report)...)

		res, err := d.Run(ctx)
		if err != nil {
			// Only a second Run on the same Driver returns no Result.
			if res == nil {
				return WrapExitError(ExitFailure, "run failed", err)
			}
			batch.Aborted++
		} else {
			batch.Finished++
		}
		batch.Runs = append(batch.Runs, summarize(res))
	}

	if err := formatter.Success(batch); err != nil {
		return WrapExitError(ExitFailure, "write summary", err)
	}
	if batch.Aborted > 0 || batch.Finished < len(files) {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d of %d file(s) did not finish", len(files)-batch.Finished, len(files)))
	}
	return nil
}

func driverOptions(cmd *cobra.Command, opts *RootOptions, report io.Writer) []driver.Option {
	out := []driver.Option{
		driver.WithProgressWriter(cmd.ErrOrStderr()),
		driver.WithReportWriter(report),
	}
	if opts.RunIDGenerator != nil {
		out = append(out, driver.WithRunIDGenerator(opts.RunIDGenerator))
	}
	if opts.Clock != nil {
		out = append(out, driver.WithClock(opts.Clock))
	}
	if opts.Opener != nil {
		out = append(out, driver.WithOpener(opts.Opener))
	}
	return out
}
