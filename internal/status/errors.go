package status

import (
	"errors"
	"fmt"
)

// ContractError reports a callback that returned a Status outside the
// domain of its phase. It is a programming error in the analysis and is
// always fatal to the run.
type ContractError struct {
	Phase  Phase
	Status Status
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s callback returned %s, which is not valid in the %s phase (allowed: %v)",
		e.Phase, e.Status, e.Phase, Allowed(e.Phase))
}

// CheckPhase returns a *ContractError if s is not valid for p.
func CheckPhase(p Phase, s Status) error {
	if s.ValidFor(p) {
		return nil
	}
	return &ContractError{Phase: p, Status: s}
}

// IsContractError returns true if err is or wraps a *ContractError.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}

// Allowed lists the variants accepted in p, in declaration order.
func Allowed(p Phase) []Status {
	var out []Status
	for s := Continue; s <= TeardownError; s++ {
		if s.ValidFor(p) {
			out = append(out, s)
		}
	}
	return out
}
