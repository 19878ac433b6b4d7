package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Submission is one reported test run. Its Status is derived from its sections and
// is recomputed whenever the sections are set.
type Submission struct {
	// ID is the database identifier
	ID primitive.ObjectID

	// Team label at the time the run was submitted. Not updated when the lead
	// later renames their team.
	Team string

	// LeadID is the contributor who owns the submission
	LeadID primitive.ObjectID

	// ManagerID is the lead's coordinator when the submission was created. This is
	// a snapshot, reassigning the lead does not move old submissions.
	ManagerID primitive.ObjectID

	// TestName is the name of the run
	TestName string

	// Timestamp is when the run happened
	Timestamp time.Time

	// CreatedAt is when the record was stored
	CreatedAt time.Time

	// UpdatedAt is when the record was last written
	UpdatedAt time.Time

	sections Sections
	status   Outcome

	// loaded is set when the submission was read from storage
	loaded       bool
	storedStatus Outcome
}

// SubmissionRecord is the stored and serialized form of a Submission
type SubmissionRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Team      string             `bson:"team" json:"team"`
	LeadID    primitive.ObjectID `bson:"leadId" json:"leadId"`
	ManagerID primitive.ObjectID `bson:"managerId" json:"managerId"`
	TestName  string             `bson:"testName" json:"testName"`
	Sections  Sections           `bson:"sections" json:"sections"`
	Status    Outcome            `bson:"status" json:"status"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewSubmission creates a submission owned by lead. The lead's current coordinator
// and team are copied onto the submission, team overrides the lead's team when not
// empty. A zero timestamp defaults to now.
func NewSubmission(lead User, team, testName string, sections []Section, timestamp, now time.Time) (*Submission, error) {
	contributor, ok := lead.Membership.(Contributor)
	if !ok {
		return nil, AuthorizationError{
			Action: "create submissions",
			Role:   lead.Role(),
		}
	}

	if len(team) == 0 {
		team = contributor.Team
	}

	if timestamp.IsZero() {
		timestamp = now
	}

	s := &Submission{
		Team:      team,
		LeadID:    lead.ID,
		ManagerID: contributor.ManagerID,
		TestName:  testName,
		Timestamp: timestamp,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.SetSections(sections); err != nil {
		return nil, err
	}

	return s, nil
}

// LoadSubmission converts a stored record into a Submission. The status is always
// recomputed, the stored value is remembered so StatusStale can report drift.
func LoadSubmission(rec SubmissionRecord) (*Submission, error) {
	if err := rec.Sections.Check(); err != nil {
		return nil, &ValidationError{Fields: []FieldError{{
			Field:   "sections",
			Message: err.Error(),
		}}}
	}

	s := &Submission{
		ID:           rec.ID,
		Team:         rec.Team,
		LeadID:       rec.LeadID,
		ManagerID:    rec.ManagerID,
		TestName:     rec.TestName,
		Timestamp:    rec.Timestamp,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
		sections:     rec.Sections.clone(),
		loaded:       true,
		storedStatus: rec.Status,
	}
	s.status = s.sections.Status()

	return s, nil
}

// SetSections replaces the section tree and recomputes the status
func (s *Submission) SetSections(sections []Section) error {
	tree := Sections(sections)
	if err := tree.Check(); err != nil {
		return &ValidationError{Fields: []FieldError{{
			Field:   "sections",
			Message: err.Error(),
		}}}
	}

	s.sections = tree.clone()
	s.status = s.sections.Status()

	return nil
}

// Sections returns a copy of the section tree
func (s Submission) Sections() Sections {
	return s.sections.clone()
}

// Status is the most severe outcome in the section tree
func (s Submission) Status() Outcome {
	return s.status
}

// StatusStale reports whether the status read from storage disagrees with the
// sections. Always false for submissions which were not loaded from storage.
func (s Submission) StatusStale() bool {
	return s.loaded && s.storedStatus != s.status
}

// Each walks every result in the submission, see Sections.Each
func (s Submission) Each(fn func(Occurrence)) {
	s.sections.Each(fn)
}

// Record returns the stored form of the submission
func (s Submission) Record() SubmissionRecord {
	return SubmissionRecord{
		ID:        s.ID,
		Team:      s.Team,
		LeadID:    s.LeadID,
		ManagerID: s.ManagerID,
		TestName:  s.TestName,
		Sections:  s.sections.clone(),
		Status:    s.status,
		Timestamp: s.Timestamp,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// MarshalJSON implements json.Marshaler
func (s Submission) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Record())
}
