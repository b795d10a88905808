package testutil

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/evloop/internal/recsrc"
)

// MemorySource is an in-memory recsrc.Source that records which indices
// were loaded.
type MemorySource struct {
	Path    string
	Records []*recsrc.Record

	// FailAt makes Load fail for that index; negative disables.
	FailAt int64
	// CloseErr is returned by Close.
	CloseErr error

	Loaded []int64
	Closed bool
}

// NewMemorySource builds a source of n records with fields "index" and
// "value" (value = index * 10).
func NewMemorySource(n int) *MemorySource {
	recs := make([]*recsrc.Record, n)
	for i := range recs {
		recs[i] = recsrc.NewRecord([]string{"index", "value"}, []any{int64(i), float64(i) * 10})
	}
	return &MemorySource{Path: "memory", Records: recs, FailAt: -1}
}

// Count implements recsrc.Source.
func (s *MemorySource) Count() int64 {
	return int64(len(s.Records))
}

// Load implements recsrc.Source.
func (s *MemorySource) Load(_ context.Context, index int64) (*recsrc.Record, error) {
	if index == s.FailAt {
		return nil, &recsrc.ReadError{Path: s.Path, Index: index, Err: errors.New("injected read failure")}
	}
	if index < 0 || index >= int64(len(s.Records)) {
		return nil, &recsrc.ReadError{Path: s.Path, Index: index, Err: recsrc.ErrOutOfRange}
	}
	s.Loaded = append(s.Loaded, index)
	return s.Records[index], nil
}

// Close implements recsrc.Source.
func (s *MemorySource) Close() error {
	s.Closed = true
	return s.CloseErr
}

// OpenerFor returns an Opener that always hands out src. If openErr is
// non-nil Open fails with an *recsrc.OpenError wrapping it.
func OpenerFor(src *MemorySource, openErr error) recsrc.Opener {
	return recsrc.OpenerFunc(func(_ context.Context, _ *recsrc.Environment, path, collection string) (recsrc.Source, error) {
		if openErr != nil {
			return nil, &recsrc.OpenError{Path: path, Collection: collection, Err: openErr}
		}
		if src == nil {
			return nil, &recsrc.OpenError{Path: path, Collection: collection, Err: fmt.Errorf("no source")}
		}
		return src, nil
	})
}
