package arc

import "fmt"

// FileState is the lifecycle state of a FileRecord.
type FileState string

const (
	// StateCurrent records are visible in listings.
	StateCurrent FileState = "Current"
	// StateDeleted records have a trash snapshot and are hidden from listings.
	StateDeleted FileState = "Deleted"
	// StatePurged records had their trash snapshot removed. Terminal.
	StatePurged FileState = "Purged"
)

// validTransitions maps a state to the states it may move to.
var validTransitions = map[FileState]map[FileState]bool{
	StateCurrent: {StateCurrent: true, StateDeleted: true},
	StateDeleted: {StatePurged: true},
	StatePurged:  {},
}

// ParseFileState converts a stored state string into a FileState.
func ParseFileState(s string) (FileState, error) {
	st := FileState(s)
	if _, ok := validTransitions[st]; !ok {
		return "", fmt.Errorf("unknown file state: %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether a record in state s may move to target.
func (s FileState) CanTransitionTo(target FileState) bool {
	return validTransitions[s][target]
}

// Transition returns target if the move is allowed, or an ErrInvalidTransition.
func (s FileState) Transition(target FileState) (FileState, error) {
	if !s.CanTransitionTo(target) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, target)
	}
	return target, nil
}

// Supersede decides what replacing a record in state s involves.
// A Current record is moved to Deleted and needs a trash snapshot. A record
// that is already Deleted may gain another successor without a new
// transition. Purged records cannot be replaced.
func (s FileState) Supersede() (needsSnapshot bool, err error) {
	switch s {
	case StateCurrent:
		return true, nil
	case StateDeleted:
		return false, nil
	default:
		return false, fmt.Errorf("%w: cannot replace a %s file", ErrInvalidTransition, s)
	}
}
