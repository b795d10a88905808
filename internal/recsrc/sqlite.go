package recsrc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"

	_ "github.com/mattn/go-sqlite3"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads records from one table of a SQLite database in
// rowid order. Record i is the row with the i-th smallest rowid.
type SQLiteSource struct {
	path  string
	table string
	db    *sql.DB
	count int64

	// Position of the last loaded row; lastIndex is -1 before the first
	// Load. A Load of lastIndex+1 seeks by rowid instead of OFFSET.
	lastIndex int64
	lastRowID int64
}

// OpenSQLite opens path read-only and checks that table exists.
func OpenSQLite(ctx context.Context, env *Environment, path, table string) (*SQLiteSource, error) {
	if !identPattern.MatchString(table) {
		return nil, &OpenError{Path: path, Collection: table, Err: fmt.Errorf("invalid table name %q", table)}
	}
	// sqlite3 would create a missing file; refuse instead.
	if _, err := os.Stat(path); err != nil {
		return nil, &OpenError{Path: path, Collection: table, Err: err}
	}

	db, err := sql.Open("sqlite3", readOnlyDSN(path))
	if err != nil {
		return nil, &OpenError{Path: path, Collection: table, Err: err}
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &OpenError{Path: path, Collection: table, Err: fmt.Errorf("failed to connect to database: %w", err)}
	}

	var name string
	err = db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		db.Close()
		return nil, &OpenError{Path: path, Collection: table, Err: errors.New("table not found")}
	}
	if err != nil {
		db.Close()
		return nil, &OpenError{Path: path, Collection: table, Err: err}
	}

	var count int64
	if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table)).Scan(&count); err != nil {
		db.Close()
		return nil, &OpenError{Path: path, Collection: table, Err: fmt.Errorf("count rows: %w", err)}
	}

	env.Logger().Debug("opened sqlite source", "path", path, "table", table, "records", count)
	return &SQLiteSource{path: path, table: table, db: db, count: count, lastIndex: -1}, nil
}

// readOnlyDSN builds a read-only SQLite URI for path. The path is
// percent-escaped so '?' and '#' in file names stay part of the path.
func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}
	return u.String()
}

// Count implements Source.
func (s *SQLiteSource) Count() int64 {
	return s.count
}

// Load implements Source. Loading indices in increasing order costs one
// rowid seek per record; any other access pattern falls back to OFFSET.
func (s *SQLiteSource) Load(ctx context.Context, index int64) (*Record, error) {
	if index < 0 || index >= s.count {
		return nil, &ReadError{Path: s.path, Index: index, Err: ErrOutOfRange}
	}

	var (
		rows *sql.Rows
		err  error
	)
	if s.lastIndex >= 0 && index == s.lastIndex+1 {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT rowid, * FROM %q WHERE rowid > ? ORDER BY rowid LIMIT 1`, s.table), s.lastRowID)
	} else {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT rowid, * FROM %q ORDER BY rowid LIMIT 1 OFFSET ?`, s.table), index)
	}
	if err != nil {
		return nil, &ReadError{Path: s.path, Index: index, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &ReadError{Path: s.path, Index: index, Err: err}
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, &ReadError{Path: s.path, Index: index, Err: err}
		}
		return nil, &ReadError{Path: s.path, Index: index, Err: ErrOutOfRange}
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, &ReadError{Path: s.path, Index: index, Err: err}
	}
	rowID, ok := values[0].(int64)
	if !ok {
		return nil, &ReadError{Path: s.path, Index: index, Err: fmt.Errorf("unexpected rowid type %T", values[0])}
	}
	s.lastIndex, s.lastRowID = index, rowID

	// Column 0 is the rowid selected above.
	return NewRecord(cols[1:], values[1:]), nil
}

// Close implements Source.
func (s *SQLiteSource) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
