// Package store writes analysis output artifacts to a SQLite file.
//
// One output file is created per input file processed. It holds:
//   - runs: one row per driver run (state, record counters, elapsed time)
//   - flag_counts: the flag ledger summary of each run, in report order
//   - artifacts: named outputs (histograms, notes)
//   - histogram_bins: bin contents of histogram artifacts
//
// Create truncates an existing file, so re-running an analysis replaces
// its previous output. Open reopens an output file for reading.
//
// # Database Configuration
//
//   - WAL mode while writing; the WAL is checkpointed on Close
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
