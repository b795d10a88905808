package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/evloop/internal/flags"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Create(context.Background(), filepath.Join(t.TempDir(), "out.db"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreate_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")

	s, err := Create(context.Background(), path)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestCreate_ReplacesExistingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.db")

	s1, err := Create(ctx, path)
	if err != nil {
		t.Fatalf("first Create() failed: %v", err)
	}
	if err := s1.Write(ctx, &Note{Name: "old", Text: "stale"}); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	s1.Close()

	s2, err := Create(ctx, path)
	if err != nil {
		t.Fatalf("second Create() failed: %v", err)
	}
	defer s2.Close()

	names, err := s2.ArtifactNames(ctx)
	if err != nil {
		t.Fatalf("ArtifactNames() failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected empty store after Create, got %v", names)
	}
}

func TestCreate_UnwritableDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "out.db")
	_, err := Create(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if !IsCreateError(err) {
		t.Errorf("expected CreateError, got %T: %v", err, err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	checks := map[string]string{
		"journal_mode": "wal",
		"foreign_keys": "1",
		"busy_timeout": "5000",
		"user_version": "1",
	}
	for name, want := range checks {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.db")

	s, err := Create(ctx, path)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	s.Close()

	if _, err := Open(ctx, path); err == nil {
		t.Fatal("expected error for newer schema version")
	}
}

func TestWriteHistogram_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	h, err := NewHistogram("energy", "total energy", 4, 0, 100)
	if err != nil {
		t.Fatalf("NewHistogram() failed: %v", err)
	}
	for _, x := range []float64{-1, 5, 30, 30, 99.9, 100, 250} {
		h.Fill(x)
	}

	if err := s.Write(ctx, h); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	got, err := s.ReadHistogram(ctx, "energy")
	if err != nil {
		t.Fatalf("ReadHistogram() failed: %v", err)
	}
	if got.Title != "total energy" || got.Lo != 0 || got.Hi != 100 {
		t.Errorf("unexpected header: %+v", got)
	}
	want := []float64{1, 2, 0, 1}
	for i := range want {
		if got.Bins[i] != want[i] {
			t.Errorf("bin %d = %v, want %v", i, got.Bins[i], want[i])
		}
	}
	if got.Underflow != 1 || got.Overflow != 2 || got.Entries != 7 {
		t.Errorf("underflow/overflow/entries = %v/%v/%d", got.Underflow, got.Overflow, got.Entries)
	}
}

func TestWrite_ReplacesSameName(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	h1, _ := NewHistogram("h", "", 2, 0, 10)
	h1.Fill(1)
	if err := s.Write(ctx, h1); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	h2, _ := NewHistogram("h", "", 3, 0, 10)
	h2.Fill(9)
	if err := s.Write(ctx, h2); err != nil {
		t.Fatalf("second Write() failed: %v", err)
	}

	got, err := s.ReadHistogram(ctx, "h")
	if err != nil {
		t.Fatalf("ReadHistogram() failed: %v", err)
	}
	if len(got.Bins) != 3 || got.Bins[2] != 1 || got.Bins[0] != 0 {
		t.Errorf("expected replaced histogram, got %v", got.Bins)
	}
}

func TestNote_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	if err := s.Write(ctx, &Note{Name: "cuts", Text: "E in [0, 500]"}); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	n, err := s.ReadNote(ctx, "cuts")
	if err != nil {
		t.Fatalf("ReadNote() failed: %v", err)
	}
	if n.Text != "E in [0, 500]" {
		t.Errorf("Text = %q", n.Text)
	}

	if _, err := s.ReadHistogram(ctx, "cuts"); err == nil {
		t.Error("expected kind mismatch error")
	}
	if _, err := s.ReadNote(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWrite_RequiresName(t *testing.T) {
	s := createTestStore(t)
	if err := s.Write(context.Background(), &Note{}); err == nil {
		t.Error("expected error for unnamed artifact")
	}
}

func TestWrite_RejectsNilArtifacts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var h *Histogram
	var n *Note
	for _, a := range []Artifact{nil, h, n} {
		if err := s.Write(ctx, a); err == nil {
			t.Errorf("Write(%T) succeeded, want error", a)
		}
	}
}

func TestRecordRun_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	run := RunRecord{
		ID:         "run-1",
		InputPath:  "in.csv",
		Collection: "g4tree",
		State:      "Finished",
		Accepted:   7,
		Skipped:    3,
		Processed:  10,
		Elapsed:    1500 * time.Millisecond,
		Params:     map[string]any{"bins": 100, "label": "<cs137>"},
		Flags:      []flags.Entry{{Name: "no_hit", Count: 3}, {Name: "hit_exists", Count: 7}},
	}
	if err := s.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	// Re-recording the same run updates it in place.
	run.State = "Aborted"
	run.Error = "read failed"
	run.Flags = run.Flags[:1]
	if err := s.RecordRun(ctx, run); err != nil {
		t.Fatalf("second RecordRun() failed: %v", err)
	}

	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.State != "Aborted" || got.Error != "read failed" || got.Elapsed != 1500*time.Millisecond {
		t.Errorf("unexpected run: %+v", got)
	}
	if got.Params["label"] != "<cs137>" || got.Params["bins"] != float64(100) {
		t.Errorf("unexpected params: %v", got.Params)
	}
	if len(got.Flags) != 1 || got.Flags[0].Name != "no_hit" || got.Flags[0].Count != 3 {
		t.Errorf("unexpected flags: %v", got.Flags)
	}
}

func TestRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.Runs(context.Background())
	if err != nil {
		t.Fatalf("Runs() failed: %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", runs)
	}
}

func TestClose_Twice(t *testing.T) {
	s, err := Create(context.Background(), filepath.Join(t.TempDir(), "out.db"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}
