package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/evloop/internal/flags"
	"github.com/roach88/evloop/internal/recsrc"
	"github.com/roach88/evloop/internal/status"
	"github.com/roach88/evloop/internal/store"
)

// Analysis is the user logic run by a Driver. Each callback must return
// a Status valid for its phase (see package status).
type Analysis interface {
	Setup(run *Run) status.Status
	ProcessRecord(run *Run, index int64, rec *recsrc.Record) status.Status
	Teardown(run *Run) status.Status
}

// Output is the output-file collaborator.
type Output interface {
	store.Artifacts
	RecordRun(ctx context.Context, r store.RunRecord) error
	Close() error
}

// OutputCreator creates the output file at path.
type OutputCreator func(ctx context.Context, path string) (Output, error)

// CreateStore is the default OutputCreator, backed by store.Create.
func CreateStore(ctx context.Context, path string) (Output, error) {
	s, err := store.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Result describes a completed (Finished or Aborted) run.
type Result struct {
	RunID      string
	InputPath  string
	OutputPath string
	State      State
	Accepted   int64
	Skipped    int64
	// Processed counts records handed to ProcessRecord, including the
	// one that returned StopLoop.
	Processed int64
	// Stopped is true if iteration ended on StopLoop.
	Stopped bool
	Elapsed time.Duration
	Flags   []flags.Entry
	Err     error
}

// Driver runs one Analysis over one input file.
type Driver struct {
	cfg      Config
	env      *recsrc.Environment
	analysis Analysis

	opener   recsrc.Opener
	create   OutputCreator
	now      func() time.Time
	progress io.Writer
	report   io.Writer
	ids      RunIDGenerator
	onState  func(from, to State)
	logger   *slog.Logger

	state     State
	ledger    *flags.Ledger
	source    recsrc.Source
	output    Output
	outPath   string
	setupDone bool
	run       *Run
	total     int64
}

// Option configures a Driver.
type Option func(*Driver)

// WithOpener replaces the record-source opener (default recsrc.DefaultOpener).
func WithOpener(o recsrc.Opener) Option {
	return func(d *Driver) { d.opener = o }
}

// WithOutputCreator replaces the output creator (default CreateStore).
func WithOutputCreator(c OutputCreator) Option {
	return func(d *Driver) { d.create = c }
}

// WithClock replaces time.Now for elapsed time and progress ETA.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// WithProgressWriter sets where progress lines go (default os.Stderr).
// nil disables progress output.
func WithProgressWriter(w io.Writer) Option {
	return func(d *Driver) { d.progress = w }
}

// WithReportWriter sets where the end-of-run summary goes (default
// os.Stdout). nil disables it.
func WithReportWriter(w io.Writer) Option {
	return func(d *Driver) { d.report = w }
}

// WithRunIDGenerator replaces the UUIDv7 run id generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(d *Driver) { d.ids = g }
}

// WithStateHook registers fn to be called on every state transition.
func WithStateHook(fn func(from, to State)) Option {
	return func(d *Driver) { d.onState = fn }
}

// New creates a Driver in the Created state. A nil env uses defaults.
func New(cfg Config, env *recsrc.Environment, analysis Analysis, opts ...Option) *Driver {
	if env == nil {
		env = recsrc.NewEnvironment(recsrc.EnvironmentOptions{OutDir: cfg.OutDir})
	}
	d := &Driver{
		cfg:      cfg,
		env:      env,
		analysis: analysis,
		opener:   recsrc.DefaultOpener{},
		create:   CreateStore,
		now:      time.Now,
		progress: os.Stderr,
		report:   os.Stdout,
		ids:      UUIDv7Generator{},
		state:    Created,
		ledger:   flags.NewLedger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = env.Logger().With("input", cfg.InputPath)
	return d
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	return d.state
}

// Flags returns the run's flag ledger.
func (d *Driver) Flags() *flags.Ledger {
	return d.ledger
}

func (d *Driver) transition(to State) {
	from := d.state
	if !canTransition(from, to) {
		// Only reachable through a bug in this package.
		panic(fmt.Sprintf("driver: invalid transition %s -> %s", from, to))
	}
	d.state = to
	d.logger.Debug("state transition", "from", from.String(), "to", to.String())
	if d.onState != nil {
		d.onState(from, to)
	}
}

// Run executes the whole lifecycle. It returns a Result in every case
// except a second call; err is non-nil iff the run was Aborted.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if d.state != Created {
		return nil, fmt.Errorf("driver: Run called in state %s; a Driver runs once", d.state)
	}

	start := d.now()
	res := &Result{RunID: d.ids.Generate(), InputPath: d.cfg.InputPath}
	d.run = &Run{d: d, ctx: ctx}

	d.transition(SettingUp)
	err := d.setup(ctx)
	res.OutputPath = d.outPath

	if err == nil {
		d.transition(Iterating)
		err = d.iterate(ctx, res)
	}

	if err == nil {
		d.transition(TearingDown)
		err = d.teardown()
	} else if d.setupDone {
		d.bestEffortTeardown(err)
	}

	// Cleanup must run even when ctx is cancelled.
	cleanupCtx := context.WithoutCancel(ctx)
	res.Elapsed = d.now().Sub(start)
	res.Flags = d.ledger.Summary()
	err = d.release(cleanupCtx, res, err)

	if err != nil {
		d.transition(Aborted)
		res.Err = err
		d.logger.Error("run aborted", "error", err, "processed", res.Processed)
	} else {
		d.transition(Finished)
		d.logger.Info("run finished",
			"accepted", res.Accepted,
			"skipped", res.Skipped,
			"elapsed", res.Elapsed)
	}
	res.State = d.state

	if d.report != nil {
		if werr := WriteSummary(d.report, res); werr != nil {
			d.logger.Warn("failed to write summary", "error", werr)
		}
	}
	return res, err
}

func (d *Driver) setup(ctx context.Context) error {
	if err := d.cfg.Validate(); err != nil {
		return &RunError{Kind: KindSetup, Path: d.cfg.InputPath, Message: "invalid configuration", Err: err}
	}

	src, err := d.opener.Open(ctx, d.env, d.cfg.InputPath, d.cfg.Collection)
	if err != nil {
		return &RunError{Kind: KindSetup, Path: d.cfg.InputPath, Message: "open record source", Err: err}
	}
	d.source = src
	d.logger.Info("opened input", "collection", d.cfg.Collection, "records", src.Count())

	d.outPath = outputPath(d.cfg, d.analysis)
	if samePath(d.outPath, d.cfg.InputPath) {
		return &RunError{Kind: KindSetup, Path: d.cfg.InputPath, Message: fmt.Sprintf("output %s would overwrite the input", d.outPath)}
	}

	out, err := d.create(ctx, d.outPath)
	if err != nil {
		return &RunError{Kind: KindSetup, Path: d.cfg.InputPath, Message: "create output", Err: err}
	}
	d.output = out
	d.logger.Info("created output", "path", d.outPath)

	d.total = src.Count()
	if d.cfg.MaxRecords >= 0 && d.cfg.MaxRecords < d.total {
		d.total = d.cfg.MaxRecords
	}

	st := d.analysis.Setup(d.run)
	if err := status.CheckPhase(status.PhaseSetup, st); err != nil {
		return &RunError{Kind: KindContract, Path: d.cfg.InputPath, Err: err}
	}
	if st != status.SetupOK {
		return &RunError{Kind: KindSetup, Path: d.cfg.InputPath, Message: "setup callback returned " + st.String()}
	}
	d.setupDone = true
	return nil
}

func (d *Driver) iterate(ctx context.Context, res *Result) error {
	var p *progress
	if d.progress != nil {
		p = newProgress(d.progress, d.total, d.cfg.PrintFreq, d.env.Batch(), d.now)
		// Terminate the progress line on every exit, including aborts.
		defer func() { p.done(res.Processed) }()
	}

	for i := int64(0); i < d.total; i++ {
		if err := ctx.Err(); err != nil {
			return &RunError{Kind: KindCanceled, Path: d.cfg.InputPath, Message: fmt.Sprintf("cancelled before record %d", i), Err: err}
		}
		if p != nil {
			p.update(i)
		}

		rec, err := d.source.Load(ctx, i)
		if err != nil {
			return &RunError{Kind: KindRead, Path: d.cfg.InputPath, Err: err}
		}

		st := d.analysis.ProcessRecord(d.run, i, rec)
		if err := status.CheckPhase(status.PhaseRecord, st); err != nil {
			return &RunError{Kind: KindContract, Path: d.cfg.InputPath, Message: fmt.Sprintf("record %d", i), Err: err}
		}
		res.Processed++

		switch st {
		case status.Continue:
			res.Accepted++
		case status.SkipRecord:
			res.Skipped++
		case status.StopLoop:
			res.Stopped = true
			d.logger.Debug("loop stopped by analysis", "index", i)
			return nil
		}
	}

	return nil
}

func (d *Driver) teardown() error {
	st := d.analysis.Teardown(d.run)
	if err := status.CheckPhase(status.PhaseTeardown, st); err != nil {
		return &RunError{Kind: KindContract, Path: d.cfg.InputPath, Err: err}
	}
	if st != status.TeardownOK {
		return &RunError{Kind: KindTeardown, Path: d.cfg.InputPath, Message: "teardown callback returned " + st.String()}
	}
	return nil
}

// bestEffortTeardown gives the analysis a chance to flush partial output
// after an abort. Its outcome never replaces the original error.
func (d *Driver) bestEffortTeardown(cause error) {
	d.logger.Warn("aborting; attempting teardown", "cause", cause)
	st := d.analysis.Teardown(d.run)
	if st != status.TeardownOK {
		d.logger.Warn("teardown after abort did not succeed", "status", st.String())
	}
}

// release stores the run summary and closes the output and source. Close
// failures abort an otherwise successful run; after an abort they are
// only logged.
func (d *Driver) release(ctx context.Context, res *Result, runErr error) error {
	var errs []error

	if d.output != nil {
		rec := store.RunRecord{
			ID:         res.RunID,
			InputPath:  d.cfg.InputPath,
			Collection: d.cfg.Collection,
			State:      Finished.String(),
			Accepted:   res.Accepted,
			Skipped:    res.Skipped,
			Processed:  res.Processed,
			Elapsed:    res.Elapsed,
			Params:     d.cfg.Params,
			Flags:      res.Flags,
		}
		if runErr != nil {
			rec.State = Aborted.String()
			rec.Error = runErr.Error()
		}
		if err := d.output.RecordRun(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("record run: %w", err))
		}
		if err := d.output.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output: %w", err))
		}
		d.output = nil
	}

	if d.source != nil {
		if err := d.source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input: %w", err))
		}
		d.source = nil
	}

	if len(errs) == 0 {
		return runErr
	}
	if runErr != nil {
		d.logger.Warn("cleanup after abort failed", "error", errors.Join(errs...))
		return runErr
	}
	return &RunError{Kind: KindTeardown, Path: d.cfg.InputPath, Err: errors.Join(errs...)}
}
