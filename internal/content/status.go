package content

import (
	"fmt"
	"slices"
)

type Status string

const (
	StatusUnclaimed  Status = "unclaimed"
	StatusClaimed    Status = "claimed"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

var Statuses = []Status{StatusUnclaimed, StatusClaimed, StatusInProgress, StatusCompleted}

var transitions = map[Status][]Status{
	StatusUnclaimed:  {StatusClaimed},
	StatusClaimed:    {StatusInProgress, StatusUnclaimed, StatusCompleted},
	StatusInProgress: {StatusCompleted, StatusClaimed},
	StatusCompleted:  {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Assigned reports whether a task in this status has an assignee.
func (s Status) Assigned() bool {
	return s == StatusClaimed || s == StatusInProgress || s == StatusCompleted
}

// Transitions returns the statuses reachable from s in one step.
func (s Status) Transitions() []Status {
	return slices.Clone(transitions[s])
}

func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
