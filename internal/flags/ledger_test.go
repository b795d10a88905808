package flags

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_IncrementsExactlyOne(t *testing.T) {
	tests := []struct {
		name      string
		cond      bool
		onTrue    string
		onFalse   string
		wantTrue  int64
		wantFalse int64
	}{
		{"true both set", true, "a", "b", 1, 0},
		{"false both set", false, "a", "b", 0, 1},
		{"true only false set", true, "", "b", 0, 0},
		{"false only true set", false, "a", "", 0, 0},
		{"true only true set", true, "a", "", 1, 0},
		{"false only false set", false, "", "b", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			got := l.Evaluate(tt.cond, tt.onTrue, tt.onFalse)
			assert.Equal(t, tt.cond, got, "Evaluate must return its condition")
			assert.Equal(t, tt.wantTrue, l.Count("a"))
			assert.Equal(t, tt.wantFalse, l.Count("b"))
		})
	}
}

func TestEvaluate_RepeatedCountsN(t *testing.T) {
	l := NewLedger()
	for i := 0; i < 250; i++ {
		l.Evaluate(true, "hit", "miss")
	}
	assert.Equal(t, int64(250), l.Count("hit"))
	assert.Equal(t, int64(0), l.Count("miss"))
}

func TestEvaluate_NoNames(t *testing.T) {
	l := NewLedger()
	assert.True(t, l.Evaluate(true, "", ""))
	assert.False(t, l.Evaluate(false, "", ""))
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Summary())
}

func TestSummary_FirstSeenOrder(t *testing.T) {
	l := NewLedger()
	l.Evaluate(true, "B", "")
	l.Evaluate(true, "A", "")

	// Later calls in a different order do not reorder the summary.
	l.Evaluate(true, "A", "")
	l.Evaluate(true, "A", "")
	l.Evaluate(false, "", "B")

	assert.Equal(t, []Entry{{Name: "B", Count: 2}, {Name: "A", Count: 3}}, l.Summary())
}

func TestSummary_RegistersBothNames(t *testing.T) {
	l := NewLedger()
	l.Evaluate(true, "under511", "over511")

	require.Equal(t, 2, l.Len())
	assert.True(t, l.Has("over511"))
	assert.Equal(t, []Entry{{"under511", 1}, {"over511", 0}}, l.Summary())
}

func TestSummary_EmptyLedger(t *testing.T) {
	l := NewLedger()
	s := l.Summary()
	require.NotNil(t, s)
	assert.Len(t, s, 0)

	// Pure: calling it again changes nothing.
	assert.Equal(t, s, l.Summary())
}

func TestSummary_IsCopy(t *testing.T) {
	l := NewLedger()
	l.Evaluate(true, "x", "")
	s := l.Summary()
	s[0].Count = 99
	assert.Equal(t, int64(1), l.Count("x"))
}

func TestDefine_KeepsCountAndPosition(t *testing.T) {
	l := NewLedger()
	l.Define("first")
	l.Evaluate(true, "second", "")
	l.Evaluate(true, "first", "")
	l.Define("first")

	assert.Equal(t, []Entry{{"first", 1}, {"second", 1}}, l.Summary())
}

func TestCount_UnknownIsZero(t *testing.T) {
	l := NewLedger()
	assert.Equal(t, int64(0), l.Count("never"))
	assert.False(t, l.Has("never"))
}

func TestNormalization_SharesCounter(t *testing.T) {
	l := NewLedger()
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	l.Evaluate(true, composed, "")
	l.Evaluate(true, decomposed, "")

	assert.Equal(t, 1, l.Len())
	assert.Equal(t, int64(2), l.Count(composed))
	assert.Equal(t, int64(2), l.Count(decomposed))
}

func TestWriteReport_Golden(t *testing.T) {
	l := NewLedger()
	for i := 0; i < 3; i++ {
		l.Evaluate(true, "under511", "over511")
	}
	l.Evaluate(false, "under511", "over511")
	l.Evaluate(false, "", "missing_field")

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, l.Summary()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "flag_report", buf.Bytes())
}

func TestWriteReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, nil))
	assert.Equal(t, " *** results of record selection *** < number of flags :    0 >\n", buf.String())
}
