// Package recsrc provides indexed, read-only access to tabular input
// data for the loop driver.
//
// A Source is opened from a file path plus a collection name (the table
// or tree holding the records) and exposes its records by index:
//
//	src, err := recsrc.DefaultOpener{}.Open(ctx, env, "run042.db", "g4tree")
//	n := src.Count()
//	rec, err := src.Load(ctx, 0)
//	e, err := rec.Float("energy")
//
// The driver never interprets fields; only analysis callbacks do.
//
// # Formats
//
// DefaultOpener picks the implementation from the file extension:
//
//   - .csv: header row names the fields. If the path is a directory the
//     collection selects <dir>/<collection>.csv.
//   - .db, .sqlite, .sqlite3: the collection names a table. Records are
//     read in rowid order. The file is opened read-only.
//   - .yaml, .yml: a top-level mapping whose <collection> key holds a
//     sequence of mappings.
package recsrc
