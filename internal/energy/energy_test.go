package energy

import (
	"bytes"
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evloop/internal/driver"
	"github.com/roach88/evloop/internal/flags"
	"github.com/roach88/evloop/internal/params"
	"github.com/roach88/evloop/internal/recsrc"
	"github.com/roach88/evloop/internal/store"
	"github.com/roach88/evloop/internal/testutil"
)

// events returns a source with one record per (nhits, energy) pair. A
// nil energy leaves the field out.
func events(rows ...[2]any) *testutil.MemorySource {
	src := testutil.NewMemorySource(0)
	for _, r := range rows {
		names := []string{"nhits"}
		values := []any{r[0]}
		if r[1] != nil {
			names = append(names, "energy")
			values = append(values, r[1])
		}
		src.Records = append(src.Records, recsrc.NewRecord(names, values))
	}
	return src
}

func sample() *testutil.MemorySource {
	return events(
		[2]any{int64(0), 0.0},     // no hit
		[2]any{int64(2), 50.0},    // below window
		[2]any{int64(2), 150.0},   // in
		[2]any{int64(1), 599.9},   // in
		[2]any{int64(3), 600.0},   // upper edge is exclusive
		[2]any{int64(1), nil},     // no energy field
		[2]any{int64(4), "325.5"}, // text energy, in
	)
}

func run(t *testing.T, a *Analysis, src *testutil.MemorySource) (*driver.Result, *testutil.MemoryOutput, error) {
	t.Helper()
	out := testutil.NewMemoryOutput()
	cfg := driver.Config{
		InputPath:  "events.csv",
		Collection: driver.DefaultCollection,
		OutDir:     t.TempDir(),
		MaxRecords: -1,
	}
	d := driver.New(cfg, recsrc.DiscardEnvironment(), a,
		driver.WithOpener(testutil.OpenerFor(src, nil)),
		driver.WithOutputCreator(func(context.Context, string) (driver.Output, error) { return out, nil }),
		driver.WithProgressWriter(nil),
		driver.WithReportWriter(nil),
		driver.WithRunIDGenerator(driver.NewFixedGenerator("energy-run")),
	)
	res, err := d.Run(context.Background())
	return res, out, err
}

func TestAnalysis_Selection(t *testing.T) {
	a := New([]float64{100, 600}, nil)
	res, out, err := run(t, a, sample())
	require.NoError(t, err)

	assert.Equal(t, driver.Finished, res.State)
	assert.Equal(t, int64(3), res.Accepted)
	assert.Equal(t, int64(4), res.Skipped)
	assert.Equal(t, int64(3), a.Selected())

	assert.Equal(t, []flags.Entry{
		{Name: FlagNoHit, Count: 1},
		{Name: FlagHitExists, Count: 6},
		{Name: FlagInWindow, Count: 3},
		{Name: FlagOutOfWindow, Count: 2},
		{Name: FlagMissingField, Count: 1},
	}, res.Flags)

	require.Contains(t, out.Artifacts, HistogramName)
	h := out.Artifacts[HistogramName].(*store.Histogram)
	assert.Len(t, h.Bins, DefaultBins)
	assert.Equal(t, int64(3), h.Entries)
	assert.Equal(t, 3.0, h.Integral())
	assert.Equal(t, 0.0, h.Underflow+h.Overflow)

	require.Contains(t, out.Artifacts, SummaryName)
	note := out.Artifacts[SummaryName].(*store.Note)
	assert.Equal(t, "window=[100, 600) bins=100 selected=3 underflow=0 overflow=0", note.Text)
}

func TestAnalysis_FlagReport(t *testing.T) {
	res, _, err := run(t, New([]float64{100, 600}, nil), sample())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, flags.WriteReport(&buf, res.Flags))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "energy_flags", buf.Bytes())
}

func TestAnalysis_ZeroRecordsDefinesFlags(t *testing.T) {
	res, out, err := run(t, New([]float64{0, 500}, nil), events())
	require.NoError(t, err)

	assert.Equal(t, driver.Finished, res.State)
	assert.Len(t, res.Flags, 5)
	for _, e := range res.Flags {
		assert.Zero(t, e.Count, e.Name)
	}
	assert.Contains(t, out.Artifacts, HistogramName)
}

func TestAnalysis_MaxAcceptedStops(t *testing.T) {
	p, err := params.Parse("p.cue", []byte("max_accepted: 2\nbins: 10\n"))
	require.NoError(t, err)

	src := sample()
	res, out, err := run(t, New([]float64{100, 600}, p), src)
	require.NoError(t, err)

	assert.True(t, res.Stopped)
	assert.Equal(t, int64(2), res.Accepted)
	// Stops on the record after the second selection, without loading the rest.
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, src.Loaded)

	h := out.Artifacts[HistogramName].(*store.Histogram)
	assert.Len(t, h.Bins, 10)
	note := out.Artifacts[SummaryName].(*store.Note)
	assert.Contains(t, note.Text, "params=p.cue")
}

func TestAnalysis_FieldNamesFromParams(t *testing.T) {
	p, err := params.Parse("p.cue", []byte("energy_field: \"edep\"\nhits_field: \"hits\"\n"))
	require.NoError(t, err)

	src := testutil.NewMemorySource(0)
	src.Records = append(src.Records,
		recsrc.NewRecord([]string{"hits", "edep"}, []any{int64(1), 200.0}),
		recsrc.NewRecord([]string{"nhits", "energy"}, []any{int64(1), 200.0}),
	)
	res, _, err := run(t, New([]float64{0, 500}, p), src)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Accepted)
	assert.Equal(t, int64(1), res.Skipped)
}

func TestAnalysis_SetupFailures(t *testing.T) {
	tests := []struct {
		name   string
		window []float64
		params string
	}{
		{"empty window", []float64{500, 500}, ""},
		{"one value", []float64{500}, ""},
		{"zero bins", []float64{0, 500}, "bins: 0\n"},
		{"unknown parameter", []float64{0, 500}, "bnis: 10\n"},
		{"bins not integer", []float64{0, 500}, "bins: 2.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := params.Empty()
			if tt.params != "" {
				var err error
				p, err = params.Parse("p.cue", []byte(tt.params))
				require.NoError(t, err)
			}

			src := sample()
			res, out, err := run(t, New(tt.window, p), src)
			require.Error(t, err)
			assert.True(t, driver.IsSetupError(err))
			assert.Equal(t, driver.Aborted, res.State)
			assert.Empty(t, src.Loaded)
			assert.Empty(t, out.Artifacts)
		})
	}
}

func TestAnalysis_WriteFailure(t *testing.T) {
	a := New([]float64{0, 500}, nil)
	src := sample()
	out := testutil.NewMemoryOutput()
	out.WriteErr = assert.AnError

	d := driver.New(driver.Config{InputPath: "e.csv", Collection: "g4tree", OutDir: t.TempDir(), MaxRecords: -1},
		recsrc.DiscardEnvironment(), a,
		driver.WithOpener(testutil.OpenerFor(src, nil)),
		driver.WithOutputCreator(func(context.Context, string) (driver.Output, error) { return out, nil }),
		driver.WithProgressWriter(nil),
		driver.WithReportWriter(nil),
	)
	_, err := d.Run(context.Background())
	require.Error(t, err)
	assert.True(t, driver.IsTeardownError(err))
}
