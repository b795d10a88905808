// Package driver runs an analysis over every record of one input file.
//
// A run has three phases, each backed by one Analysis callback:
//
//	Created -> SettingUp -> Iterating -> TearingDown -> Finished
//	               |            |             |
//	               +------------+-------------+--> Aborted
//
// SettingUp opens the record source and the output file, then calls
// Setup. Iterating loads records 0..n-1 in order (n = record count,
// capped by Config.MaxRecords) and hands each to ProcessRecord, whose
// Status decides what happens next:
//
//	Continue    accepted++, next record
//	SkipRecord  skipped++, next record
//	StopLoop    leave the loop, go to teardown (not an error)
//
// TearingDown calls Teardown, stores the run summary and closes the
// output. Any collaborator failure, an error Status, or a Status that is
// not valid for the phase moves the run to Aborted. Aborted still closes
// whatever was opened, and calls Teardown on a best-effort basis if
// Setup had succeeded, so partial output is flushed.
//
// Execution is single-threaded. A Driver runs once; process several
// input files with one Driver each. The context is checked between
// records only: a callback that has started always runs to completion.
package driver
