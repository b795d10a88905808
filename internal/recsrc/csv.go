package recsrc

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource holds a CSV file in memory for random access.
type CSVSource struct {
	path   string
	header []string
	rows   [][]string
}

// OpenCSV reads path fully. The first row is the header.
func OpenCSV(env *Environment, path, collection string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Collection: collection, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.Comment = '#'

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &OpenError{Path: path, Collection: collection, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, &OpenError{Path: path, Collection: collection, Err: err}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	// Remaining rows must match the header width, which csv.Reader
	// enforces after the first record.
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &OpenError{Path: path, Collection: collection, Err: fmt.Errorf("reading rows: %w", err)}
	}

	env.Logger().Debug("opened csv source", "path", path, "fields", len(header), "records", len(rows))
	return &CSVSource{path: path, header: header, rows: rows}, nil
}

// Count implements Source.
func (s *CSVSource) Count() int64 {
	return int64(len(s.rows))
}

// Load implements Source.
func (s *CSVSource) Load(_ context.Context, index int64) (*Record, error) {
	if index < 0 || index >= int64(len(s.rows)) {
		return nil, &ReadError{Path: s.path, Index: index, Err: ErrOutOfRange}
	}
	row := s.rows[index]
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}
	return NewRecord(s.header, values), nil
}

// Close implements Source.
func (s *CSVSource) Close() error {
	s.rows = nil
	return nil
}
