package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/evloop/internal/flags"
)

// ErrNotFound is returned when a named artifact does not exist.
var ErrNotFound = errors.New("not found")

// ReadHistogram loads the histogram artifact called name.
func (s *Store) ReadHistogram(ctx context.Context, name string) (*Histogram, error) {
	h := &Histogram{Name: name}
	var kind string
	var nbins int
	err := s.db.QueryRowContext(ctx, `
		SELECT kind, title, COALESCE(lo, 0), COALESCE(hi, 0), COALESCE(nbins, 0),
		       COALESCE(underflow, 0), COALESCE(overflow, 0), COALESCE(entries, 0)
		FROM artifacts WHERE name = ?
	`, name).Scan(&kind, &h.Title, &h.Lo, &h.Hi, &nbins, &h.Underflow, &h.Overflow, &h.Entries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("histogram %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query histogram %q: %w", name, err)
	}
	if kind != "histogram" {
		return nil, fmt.Errorf("artifact %q is a %s, not a histogram", name, kind)
	}

	h.Bins = make([]float64, nbins)
	rows, err := s.db.QueryContext(ctx, `
		SELECT bin, content FROM histogram_bins WHERE artifact = ? ORDER BY bin ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query bins %q: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var bin int
		var content float64
		if err := rows.Scan(&bin, &content); err != nil {
			return nil, fmt.Errorf("scan bin: %w", err)
		}
		if bin >= 0 && bin < nbins {
			h.Bins[bin] = content
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bins: %w", err)
	}
	return h, nil
}

// ReadNote loads the note artifact called name.
func (s *Store) ReadNote(ctx context.Context, name string) (*Note, error) {
	var kind string
	var body sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT kind, body FROM artifacts WHERE name = ?`, name).Scan(&kind, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query note %q: %w", name, err)
	}
	if kind != "note" {
		return nil, fmt.Errorf("artifact %q is a %s, not a note", name, kind)
	}
	return &Note{Name: name, Text: body.String}, nil
}

// ArtifactNames lists stored artifacts in name order.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) ArtifactNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM artifacts ORDER BY name COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return names, nil
}

// Runs returns every recorded run with its flag counts.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input_path, collection, state, accepted, skipped, processed, elapsed_ns, params, error
		FROM runs ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs := []RunRecord{}
	for rows.Next() {
		var r RunRecord
		var elapsed int64
		var params string
		if err := rows.Scan(&r.ID, &r.InputPath, &r.Collection, &r.State,
			&r.Accepted, &r.Skipped, &r.Processed, &elapsed, &params, &r.Error); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Elapsed = time.Duration(elapsed)
		if r.Params, err = unmarshalParams(params); err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	// Single connection: release it before the per-run flag queries.
	rows.Close()

	for i := range runs {
		if runs[i].Flags, err = s.FlagCounts(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// FlagCounts returns the flag summary stored for runID in report order.
func (s *Store) FlagCounts(ctx context.Context, runID string) ([]flags.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, count FROM flag_counts WHERE run_id = ? ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query flag counts: %w", err)
	}
	defer rows.Close()

	entries := []flags.Entry{}
	for rows.Next() {
		var e flags.Entry
		if err := rows.Scan(&e.Name, &e.Count); err != nil {
			return nil, fmt.Errorf("scan flag count: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flag counts: %w", err)
	}
	return entries, nil
}
