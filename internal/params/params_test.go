package params

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_File(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "energy.cue"))
	require.NoError(t, err)

	assert.Equal(t, []string{"bins", "max_accepted", "scale", "label", "verbose_hist"}, s.Names())
	assert.Equal(t, filepath.Join("testdata", "energy.cue"), s.Source())

	bins, err := s.Int("bins", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(50), bins)

	scale, err := s.Float("scale", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.5, scale)

	label, err := s.String("label", "")
	require.NoError(t, err)
	assert.Equal(t, "calib-run", label)

	on, err := s.Bool("verbose_hist", false)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestParse_DefaultsResolve(t *testing.T) {
	s, err := Parse("p.cue", []byte("bins: int & >0 | *100\n"))
	require.NoError(t, err)

	bins, err := s.Int("bins", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bins)
}

func TestGetters_Defaults(t *testing.T) {
	s := Empty()

	f, err := s.Float("missing", 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	i, err := s.Int("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), i)

	str, err := s.String("missing", "x")
	require.NoError(t, err)
	assert.Equal(t, "x", str)

	b, err := s.Bool("missing", true)
	require.NoError(t, err)
	assert.True(t, b)

	assert.Empty(t, s.Map())
	assert.Equal(t, "", s.Source())
}

func TestGetters_Conversions(t *testing.T) {
	s, err := Parse("p.cue", []byte("n: 3\nx: 4.0\ny: 4.5\nname: \"a\"\n"))
	require.NoError(t, err)

	f, err := s.Float("n", 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	i, err := s.Int("x", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), i)

	_, err = s.Int("y", 0)
	assert.True(t, errors.Is(err, ErrWrongType))

	_, err = s.Float("name", 0)
	assert.True(t, errors.Is(err, ErrWrongType))

	_, err = s.Bool("n", false)
	assert.ErrorIs(t, err, ErrWrongType)
	assert.Contains(t, err.Error(), `parameter "n"`)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax error", "bins: [\n", "compile"},
		{"conflict", "bins: 1\nbins: 2\n", "p.cue"},
		{"not concrete", "bins: int\n", "evaluate"},
		{"nested struct", "window: {lo: 0, hi: 1}\n", `parameter "window"`},
		{"list", "window: [0, 1]\n", `parameter "window"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("p.cue", []byte(tt.src))
			require.Error(t, err)
			assert.True(t, IsLoadError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("p.cue", []byte("a: 1\nwindow: [0, 1]\n"))
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	require.True(t, le.Pos.IsValid())
	assert.Equal(t, 2, le.Pos.Line())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.True(t, IsLoadError(err))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCheckKnown(t *testing.T) {
	s, err := Parse("p.cue", []byte("bins: 10\nbnis: 3\n"))
	require.NoError(t, err)

	err = s.CheckKnown("bins", "max_accepted")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parameters in p.cue: bnis (")

	assert.NoError(t, s.CheckKnown("bins", "bnis"))
}

func TestMap_IsCopy(t *testing.T) {
	s, err := Parse("p.cue", []byte("bins: 10\n"))
	require.NoError(t, err)

	m := s.Map()
	m["bins"] = int64(99)
	bins, _ := s.Int("bins", 0)
	assert.Equal(t, int64(10), bins)
}
