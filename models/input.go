package models

import (
	"time"
)

// SubmissionInput is a new submission as supplied by a contributor
type SubmissionInput struct {
	// Team overrides the contributor's current team when not empty
	Team string `json:"team" validate:"omitempty,max=100"`

	// TestName of the run
	TestName string `json:"testName" validate:"required,max=200"`

	// Sections of the run, at least one
	Sections []Section `json:"sections" validate:"required,min=1,dive"`

	// Timestamp of the run, defaults to the time of submission
	Timestamp *time.Time `json:"timestamp"`

	// Status is accepted so older clients keep working. It is never used, the
	// status is always derived from Sections.
	Status string `json:"status,omitempty"`
}

// SubmissionChanges is a partial update of a submission. Nil fields are left as is.
type SubmissionChanges struct {
	Team      *string    `json:"team" validate:"omitempty,min=1,max=100"`
	TestName  *string    `json:"testName" validate:"omitempty,min=1,max=200"`
	Sections  []Section  `json:"sections" validate:"omitempty,dive"`
	Timestamp *time.Time `json:"timestamp"`

	// Status is ignored, see SubmissionInput.Status
	Status string `json:"status,omitempty"`
}

// ProfileChanges is a user's update of their own profile
type ProfileChanges struct {
	Team string `json:"team" validate:"required,max=100"`
}
