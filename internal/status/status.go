// Package status defines the closed set of outcomes returned by analysis
// lifecycle callbacks.
//
// Each phase of a run accepts a subset of the variants:
//
//	setup    : SetupOK, SetupError
//	record   : Continue, SkipRecord, StopLoop
//	teardown : TeardownOK, TeardownError
//
// Callbacks should build their return value with the phase helpers
// (Accept, Skip, Stop, SetupDone, ...) so that the value they return is
// always in the domain of the phase they are running in. The driver
// checks every returned value with CheckPhase and aborts the run on a
// mismatch.
package status

import "fmt"

// Status is the outcome of a single lifecycle callback.
//
// The zero value is Invalid so that a callback which forgets to set its
// return value is caught as a contract violation.
type Status int

const (
	Invalid Status = iota

	// Continue accepts the current record and proceeds to the next one.
	Continue
	// SkipRecord abandons the current record and proceeds to the next one.
	SkipRecord
	// StopLoop ends iteration normally; teardown still runs.
	StopLoop

	SetupOK
	SetupError

	TeardownOK
	TeardownError
)

var names = map[Status]string{
	Invalid:       "Invalid",
	Continue:      "Continue",
	SkipRecord:    "SkipRecord",
	StopLoop:      "StopLoop",
	SetupOK:       "SetupOK",
	SetupError:    "SetupError",
	TeardownOK:    "TeardownOK",
	TeardownError: "TeardownError",
}

func (s Status) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IsError reports whether s is one of the error variants.
func (s Status) IsError() bool {
	return s == SetupError || s == TeardownError
}

// Phase identifies the lifecycle stage a callback runs in.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseRecord
	PhaseTeardown
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseRecord:
		return "record"
	case PhaseTeardown:
		return "teardown"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ValidFor reports whether s may be returned by a callback running in p.
func (s Status) ValidFor(p Phase) bool {
	switch p {
	case PhaseSetup:
		return s == SetupOK || s == SetupError
	case PhaseRecord:
		return s == Continue || s == SkipRecord || s == StopLoop
	case PhaseTeardown:
		return s == TeardownOK || s == TeardownError
	default:
		return false
	}
}

// Phase helpers. Record callbacks use Accept, Skip and Stop; setup
// callbacks use SetupDone/SetupFailed; teardown callbacks use
// TeardownDone/TeardownFailed.

func Accept() Status         { return Continue }
func Skip() Status           { return SkipRecord }
func Stop() Status           { return StopLoop }
func SetupDone() Status      { return SetupOK }
func SetupFailed() Status    { return SetupError }
func TeardownDone() Status   { return TeardownOK }
func TeardownFailed() Status { return TeardownError }
