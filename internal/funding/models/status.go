package models

import (
	dErrors "givepool/pkg/domain-errors"
)

// ProjectStatus is the lifecycle state of a funding campaign.
//
// Transitions:
//
//	Active → Funded     (automatic, when raised >= goal)
//	Funded → Completed  (releaseFunds only)
//	Active → Cancelled  (admin)
//	Funded → Cancelled  (admin)
//
// Completed is terminal: no transition ever leaves it.
type ProjectStatus string

const (
	StatusActive    ProjectStatus = "active"
	StatusFunded    ProjectStatus = "funded"
	StatusCompleted ProjectStatus = "completed"
	StatusCancelled ProjectStatus = "cancelled"
)

// validStatuses is the single source of truth for valid statuses.
var validStatuses = map[ProjectStatus]bool{
	StatusActive:    true,
	StatusFunded:    true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// ParseProjectStatus constructs a ProjectStatus from external input.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	st := ProjectStatus(s)
	if !st.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidStatusTransition, "unknown status %q", s)
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s ProjectStatus) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal reports whether no further transition may leave this status.
// Cancelled is not terminal in the refund sense (per-donor refunds still run),
// but no forward funding transition leaves it either.
func (s ProjectStatus) IsTerminal() bool {
	return s == StatusCompleted
}

// CanTransitionTo reports whether the transition graph allows moving to next.
func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	if s == StatusCompleted {
		return false
	}
	switch next {
	case StatusFunded:
		return s == StatusActive
	case StatusCompleted:
		return s == StatusActive || s == StatusFunded
	case StatusCancelled:
		return s == StatusActive || s == StatusFunded
	case StatusActive:
		return false
	}
	return false
}

func (s ProjectStatus) String() string {
	return string(s)
}
