// Package domain holds the lead lifecycle rules shared by the repository,
// lifecycle controller and distribution pass.
package domain

import "fmt"

// Status is the lifecycle state of a lead.
type Status string

const (
	StatusNew        Status = "New"
	StatusInProgress Status = "InProgress"
	StatusClosed     Status = "Closed"
	StatusConverted  Status = "Converted"
)

// legalTransitions is the full transition table. New is the only initial
// state; Closed and Converted are terminal.
var legalTransitions = map[Status][]Status{
	StatusNew:        {StatusInProgress, StatusClosed, StatusConverted},
	StatusInProgress: {StatusClosed, StatusConverted},
	StatusClosed:     {},
	StatusConverted:  {},
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	_, ok := legalTransitions[s]
	return s, ok
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(s Status) bool {
	return len(legalTransitions[s]) == 0
}

// CanTransition reports whether from -> to is a legal edge.
// A no-op transition (from == to) is not a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IllegalTransitionError names the attempted from/to pair.
type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}

// NewIllegalTransition creates an IllegalTransitionError for the given pair.
func NewIllegalTransition(from, to Status) *IllegalTransitionError {
	return &IllegalTransitionError{From: from, To: to}
}
