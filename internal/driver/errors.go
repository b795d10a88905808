package driver

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes run failures.
type ErrorKind string

const (
	// KindSetup: the source or output could not be opened, or Setup
	// returned SetupError.
	KindSetup ErrorKind = "SETUP_FAILED"

	// KindRead: a record could not be loaded.
	KindRead ErrorKind = "READ_FAILED"

	// KindContract: a callback returned a Status outside its phase.
	KindContract ErrorKind = "CONTRACT_VIOLATION"

	// KindTeardown: Teardown returned TeardownError, or the output could
	// not be written or closed.
	KindTeardown ErrorKind = "TEARDOWN_FAILED"

	// KindCanceled: the context was cancelled between records.
	KindCanceled ErrorKind = "CANCELED"
)

// RunError is the error returned by Driver.Run for an aborted run.
type RunError struct {
	Kind    ErrorKind
	Path    string
	Message string
	Err     error
}

func (e *RunError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (input=%s)", e.Kind, msg, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func isKind(err error, kind ErrorKind) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}

// IsSetupError returns true if the run aborted during setup.
func IsSetupError(err error) bool { return isKind(err, KindSetup) }

// IsReadError returns true if the run aborted on a record read.
func IsReadError(err error) bool { return isKind(err, KindRead) }

// IsContractError returns true if a callback returned a Status that is
// not valid for its phase.
func IsContractError(err error) bool { return isKind(err, KindContract) }

// IsTeardownError returns true if the run aborted during teardown.
func IsTeardownError(err error) bool { return isKind(err, KindTeardown) }

// IsCanceled returns true if the run was cancelled between records.
func IsCanceled(err error) bool { return isKind(err, KindCanceled) }
