package driver

import "fmt"

// State is the lifecycle position of a Driver.
type State int

const (
	Created State = iota
	SettingUp
	Iterating
	TearingDown
	Finished
	Aborted
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case SettingUp:
		return "SettingUp"
	case Iterating:
		return "Iterating"
	case TearingDown:
		return "TearingDown"
	case Finished:
		return "Finished"
	case Aborted:
		return "Aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s == Finished || s == Aborted
}

// validTransitions lists the allowed successor states.
var validTransitions = map[State][]State{
	Created:     {SettingUp},
	SettingUp:   {Iterating, Aborted},
	Iterating:   {TearingDown, Aborted},
	TearingDown: {Finished, Aborted},
}

func canTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
