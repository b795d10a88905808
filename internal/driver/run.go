package driver

import (
	"context"
	"log/slog"

	"github.com/roach88/evloop/internal/flags"
	"github.com/roach88/evloop/internal/recsrc"
	"github.com/roach88/evloop/internal/status"
	"github.com/roach88/evloop/internal/store"
)

// Run is the handle passed to Analysis callbacks.
type Run struct {
	d   *Driver
	ctx context.Context
}

// Flags returns the ledger for this run.
func (r *Run) Flags() *flags.Ledger { return r.d.ledger }

// Output returns the output file. It is open from Setup until Teardown
// returns.
func (r *Run) Output() store.Artifacts { return r.d.output }

// Config returns the run configuration.
func (r *Run) Config() Config { return r.d.cfg }

// Environment returns the process-wide environment.
func (r *Run) Environment() *recsrc.Environment { return r.d.env }

// Logger returns a logger tagged with the input path.
func (r *Run) Logger() *slog.Logger { return r.d.logger }

// Context returns the context passed to Driver.Run.
func (r *Run) Context() context.Context { return r.ctx }

// RecordCount is the number of records the loop will visit at most.
func (r *Run) RecordCount() int64 { return r.d.total }

// Funcs adapts plain functions to Analysis. Nil fields default to
// SetupOK, Continue and TeardownOK.
type Funcs struct {
	SetupFn    func(run *Run) status.Status
	RecordFn   func(run *Run, index int64, rec *recsrc.Record) status.Status
	TeardownFn func(run *Run) status.Status
}

func (f Funcs) Setup(run *Run) status.Status {
	if f.SetupFn == nil {
		return status.SetupOK
	}
	return f.SetupFn(run)
}

func (f Funcs) ProcessRecord(run *Run, index int64, rec *recsrc.Record) status.Status {
	if f.RecordFn == nil {
		return status.Continue
	}
	return f.RecordFn(run, index, rec)
}

func (f Funcs) Teardown(run *Run) status.Status {
	if f.TeardownFn == nil {
		return status.TeardownOK
	}
	return f.TeardownFn(run)
}
