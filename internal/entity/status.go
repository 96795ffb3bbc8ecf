package entity

import "fmt"

type Status string

const (
	StatusNew           Status = "New"
	StatusInterested    Status = "Interested"
	StatusClosed        Status = "Closed"
	StatusNotInterested Status = "Not Interested"
)

// Statuses lists every lead status in display order.
var Statuses = []Status{StatusNew, StatusInterested, StatusClosed, StatusNotInterested}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInterested, StatusClosed, StatusNotInterested:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown lead status %q", s)
	}
	return st, nil
}

// CanTransition reports whether a lead may move from one status to another.
// The graph is unrestricted: any valid status is reachable from any other,
// including Closed -> New.
func CanTransition(from, to Status) bool {
	return to.Valid()
}

// ApplyPlanAcceptance is the only implicit transition: an accepted plan moves
// the lead to Interested whatever its status was. Closed is never reached
// this way.
func ApplyPlanAcceptance(current Status, planAccepted bool) Status {
	if planAccepted {
		return StatusInterested
	}
	return current
}
