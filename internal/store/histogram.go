package store

import (
	"fmt"
	"math"
)

// Artifact is a named output object.
type Artifact interface {
	ArtifactName() string
}

// Histogram is a fixed-width 1D histogram over [Lo, Hi).
type Histogram struct {
	Name      string
	Title     string
	Lo, Hi    float64
	Bins      []float64
	Underflow float64
	Overflow  float64
	Entries   int64
}

// NewHistogram books an empty histogram with nbins equal-width bins.
func NewHistogram(name, title string, nbins int, lo, hi float64) (*Histogram, error) {
	if nbins < 1 {
		return nil, fmt.Errorf("histogram %q: need at least 1 bin, got %d", name, nbins)
	}
	if !(lo < hi) {
		return nil, fmt.Errorf("histogram %q: low edge %g must be below high edge %g", name, lo, hi)
	}
	return &Histogram{
		Name:  name,
		Title: title,
		Lo:    lo,
		Hi:    hi,
		Bins:  make([]float64, nbins),
	}, nil
}

// ArtifactName implements Artifact.
func (h *Histogram) ArtifactName() string { return h.Name }

// Fill adds one entry of weight 1 at x.
func (h *Histogram) Fill(x float64) {
	h.FillWeighted(x, 1)
}

// FillWeighted adds one entry of weight w at x. NaN values are dropped
// and not counted as entries.
func (h *Histogram) FillWeighted(x, w float64) {
	if math.IsNaN(x) {
		return
	}
	h.Entries++
	switch {
	case x < h.Lo:
		h.Underflow += w
	case x >= h.Hi:
		h.Overflow += w
	default:
		i := int(float64(len(h.Bins)) * (x - h.Lo) / (h.Hi - h.Lo))
		if i >= len(h.Bins) {
			i = len(h.Bins) - 1
		}
		h.Bins[i] += w
	}
}

// BinWidth returns the width of one bin.
func (h *Histogram) BinWidth() float64 {
	return (h.Hi - h.Lo) / float64(len(h.Bins))
}

// Integral is the sum of in-range bin contents.
func (h *Histogram) Integral() float64 {
	var sum float64
	for _, c := range h.Bins {
		sum += c
	}
	return sum
}

// Note is a free-text artifact.
type Note struct {
	Name string
	Text string
}

// ArtifactName implements Artifact.
func (n *Note) ArtifactName() string { return n.Name }
