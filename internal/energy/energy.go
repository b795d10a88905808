// Package energy is the bundled example analysis: it selects records
// whose deposited energy falls inside a window and histograms it.
//
// Record fields (names can be changed with parameters):
//
//	nhits   number of hits; records without hits are skipped
//	energy  total deposited energy in keV
//
// Parameters:
//
//	bins          histogram bins (default 100)
//	max_accepted  stop the loop after this many selected records (default: no limit)
//	energy_field  name of the energy field (default "energy")
//	hits_field    name of the hit-count field (default "nhits")
package energy

import (
	"fmt"

	"github.com/roach88/evloop/internal/driver"
	"github.com/roach88/evloop/internal/params"
	"github.com/roach88/evloop/internal/recsrc"
	"github.com/roach88/evloop/internal/status"
	"github.com/roach88/evloop/internal/store"
)

// Artifact names written to the output file.
const (
	HistogramName = "energy"
	SummaryName   = "energy_summary"
)

// Defaults for parameters that are not set.
const (
	DefaultBins        = 100
	DefaultEnergyField = "energy"
	DefaultHitsField   = "nhits"
)

// Flag names raised by the analysis, in report order.
const (
	FlagNoHit        = "no_hit"
	FlagHitExists    = "hit_exists"
	FlagInWindow     = "in_window"
	FlagOutOfWindow  = "out_of_window"
	FlagMissingField = "missing_field"
)

var knownParams = []string{"bins", "max_accepted", "energy_field", "hits_field"}

// Analysis implements driver.Analysis. A value is reusable across runs;
// Setup resets all per-run state.
type Analysis struct {
	window []float64
	params *params.Set

	lo, hi      float64
	bins        int64
	maxAccepted int64
	energyField string
	hitsField   string

	selected int64
	hist     *store.Histogram
}

var _ driver.Analysis = (*Analysis)(nil)

// New returns an analysis selecting energies in [window[0], window[1]).
// A nil p behaves like params.Empty().
func New(window []float64, p *params.Set) *Analysis {
	if p == nil {
		p = params.Empty()
	}
	return &Analysis{window: window, params: p}
}

// Setup validates the window and parameters and books the histogram.
func (a *Analysis) Setup(run *driver.Run) status.Status {
	log := run.Logger()
	if err := a.configure(); err != nil {
		log.Error("energy analysis setup failed", "error", err)
		return status.SetupFailed()
	}

	title := fmt.Sprintf("deposited energy in [%g, %g) keV", a.lo, a.hi)
	h, err := store.NewHistogram(HistogramName, title, int(a.bins), a.lo, a.hi)
	if err != nil {
		log.Error("book histogram", "error", err)
		return status.SetupFailed()
	}
	a.hist = h
	a.selected = 0

	for _, name := range []string{FlagNoHit, FlagHitExists, FlagInWindow, FlagOutOfWindow, FlagMissingField} {
		run.Flags().Define(name)
	}

	log.Debug("energy analysis ready",
		"window", a.window,
		"bins", a.bins,
		"max_accepted", a.maxAccepted,
		"records", run.RecordCount())
	return status.SetupDone()
}

func (a *Analysis) configure() error {
	if len(a.window) != 2 {
		return fmt.Errorf("energy window needs 2 values, got %d", len(a.window))
	}
	a.lo, a.hi = a.window[0], a.window[1]
	if !(a.lo < a.hi) {
		return fmt.Errorf("energy window [%g, %g] is empty", a.lo, a.hi)
	}

	p := a.params
	if err := p.CheckKnown(knownParams...); err != nil {
		return err
	}
	var err error
	if a.bins, err = p.Int("bins", DefaultBins); err != nil {
		return err
	}
	if a.bins < 1 {
		return fmt.Errorf("bins must be positive, got %d", a.bins)
	}
	if a.maxAccepted, err = p.Int("max_accepted", -1); err != nil {
		return err
	}
	if a.energyField, err = p.String("energy_field", DefaultEnergyField); err != nil {
		return err
	}
	if a.hitsField, err = p.String("hits_field", DefaultHitsField); err != nil {
		return err
	}
	return nil
}

// ProcessRecord applies the hit and window selections and fills the
// histogram with records that pass.
func (a *Analysis) ProcessRecord(run *driver.Run, _ int64, rec *recsrc.Record) status.Status {
	if a.maxAccepted >= 0 && a.selected >= a.maxAccepted {
		return status.Stop()
	}
	f := run.Flags()

	nhits, err := rec.Int(a.hitsField)
	if f.Evaluate(err != nil, FlagMissingField, "") {
		return status.Skip()
	}
	if f.Evaluate(nhits == 0, FlagNoHit, FlagHitExists) {
		return status.Skip()
	}

	e, err := rec.Float(a.energyField)
	if f.Evaluate(err != nil, FlagMissingField, "") {
		return status.Skip()
	}
	if !f.Evaluate(e >= a.lo && e < a.hi, FlagInWindow, FlagOutOfWindow) {
		return status.Skip()
	}

	a.hist.Fill(e)
	a.selected++
	return status.Accept()
}

// Teardown writes the histogram and a short text summary.
func (a *Analysis) Teardown(run *driver.Run) status.Status {
	ctx := run.Context()
	out := run.Output()

	if err := out.Write(ctx, a.hist); err != nil {
		run.Logger().Error("write histogram", "error", err)
		return status.TeardownFailed()
	}

	text := fmt.Sprintf("window=[%g, %g) bins=%d selected=%d underflow=%g overflow=%g",
		a.lo, a.hi, a.bins, a.selected, a.hist.Underflow, a.hist.Overflow)
	if src := a.params.Source(); src != "" {
		text += " params=" + src
	}
	if err := out.Write(ctx, &store.Note{Name: SummaryName, Text: text}); err != nil {
		run.Logger().Error("write summary note", "error", err)
		return status.TeardownFailed()
	}
	return status.TeardownDone()
}

// Selected returns the number of records that passed both selections in
// the last run.
func (a *Analysis) Selected() int64 { return a.selected }
