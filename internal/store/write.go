package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/evloop/internal/flags"
)

// RunRecord summarises one driver run.
type RunRecord struct {
	ID         string
	InputPath  string
	Collection string
	State      string
	Accepted   int64
	Skipped    int64
	Processed  int64
	Elapsed    time.Duration
	Params     map[string]any
	Error      string
	Flags      []flags.Entry
}

// isNilArtifact also catches typed nil pointers, whose ArtifactName
// would panic.
func isNilArtifact(a Artifact) bool {
	switch v := a.(type) {
	case nil:
		return true
	case *Histogram:
		return v == nil
	case *Note:
		return v == nil
	}
	return false
}

// Write stores an artifact, replacing any artifact with the same name.
func (s *Store) Write(ctx context.Context, a Artifact) error {
	if isNilArtifact(a) || a.ArtifactName() == "" {
		return fmt.Errorf("write artifact: artifact must have a name")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write artifact %q: %w", a.ArtifactName(), err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, q := range []string{
		`DELETE FROM histogram_bins WHERE artifact = ?`,
		`DELETE FROM artifacts WHERE name = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, a.ArtifactName()); err != nil {
			return fmt.Errorf("write artifact %q: %w", a.ArtifactName(), err)
		}
	}

	switch v := a.(type) {
	case *Histogram:
		err = writeHistogram(ctx, tx, v)
	case *Note:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO artifacts (name, kind, body) VALUES (?, 'note', ?)
		`, v.Name, v.Text)
	default:
		err = fmt.Errorf("unsupported artifact type %T", a)
	}
	if err != nil {
		return fmt.Errorf("write artifact %q: %w", a.ArtifactName(), err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write artifact %q: %w", a.ArtifactName(), err)
	}
	return nil
}

func writeHistogram(ctx context.Context, tx *sql.Tx, h *Histogram) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO artifacts
		(name, kind, title, lo, hi, nbins, underflow, overflow, entries)
		VALUES (?, 'histogram', ?, ?, ?, ?, ?, ?, ?)
	`,
		h.Name,
		h.Title,
		h.Lo,
		h.Hi,
		len(h.Bins),
		h.Underflow,
		h.Overflow,
		h.Entries,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO histogram_bins (artifact, bin, content) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range h.Bins {
		if _, err := stmt.ExecContext(ctx, h.Name, i, c); err != nil {
			return fmt.Errorf("bin %d: %w", i, err)
		}
	}
	return nil
}

// RecordRun stores a run summary and its flag counts.
func (s *Store) RecordRun(ctx context.Context, r RunRecord) error {
	params, err := marshalParams(r.Params)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, input_path, collection, state, accepted, skipped, processed, elapsed_ns, params, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			accepted = excluded.accepted,
			skipped = excluded.skipped,
			processed = excluded.processed,
			elapsed_ns = excluded.elapsed_ns,
			params = excluded.params,
			error = excluded.error
	`,
		r.ID,
		r.InputPath,
		r.Collection,
		r.State,
		r.Accepted,
		r.Skipped,
		r.Processed,
		r.Elapsed.Nanoseconds(),
		params,
		r.Error,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM flag_counts WHERE run_id = ?`, r.ID); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	for i, f := range r.Flags {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO flag_counts (run_id, position, name, count) VALUES (?, ?, ?, ?)
		`, r.ID, i, f.Name, f.Count); err != nil {
			return fmt.Errorf("record run: flag %q: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}
