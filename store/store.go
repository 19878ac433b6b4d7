// Package store persists submissions and users.
//
// Two implementations are provided: MongoDB, used in production, and an in memory
// store used by tests and local development.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kscout/runboard-api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SortOrder orders submissions by timestamp
type SortOrder int

// SortTimestampAsc orders oldest runs first
const SortTimestampAsc SortOrder = 0

// SortTimestampDesc orders newest runs first
const SortTimestampDesc SortOrder = 1

// SubmissionFilter selects submissions. Zero fields do not constrain the selection.
// Time bounds are inclusive.
type SubmissionFilter struct {
	// ID of a single submission
	ID *primitive.ObjectID

	// LeadID of the owning contributor
	LeadID *primitive.ObjectID

	// ManagerID of the coordinator snapshot on the submission
	ManagerID *primitive.ObjectID

	// Team label stored on the submission
	Team string

	// From is the earliest timestamp
	From *time.Time

	// To is the latest timestamp
	To *time.Time

	// TestNameSearch matches test names containing this text, case insensitive
	TestNameSearch string
}

// Matches reports whether sub is selected by the filter
func (f SubmissionFilter) Matches(sub models.Submission) bool {
	return f.matchesRecord(sub.Record())
}

// matchesRecord reports whether a stored record is selected by the filter
func (f SubmissionFilter) matchesRecord(rec models.SubmissionRecord) bool {
	if f.ID != nil && *f.ID != rec.ID {
		return false
	}

	if f.LeadID != nil && *f.LeadID != rec.LeadID {
		return false
	}

	if f.ManagerID != nil && *f.ManagerID != rec.ManagerID {
		return false
	}

	if len(f.Team) > 0 && f.Team != rec.Team {
		return false
	}

	if f.From != nil && rec.Timestamp.Before(*f.From) {
		return false
	}

	if f.To != nil && rec.Timestamp.After(*f.To) {
		return false
	}

	if len(f.TestNameSearch) > 0 &&
		!strings.Contains(strings.ToLower(rec.TestName), strings.ToLower(f.TestNameSearch)) {
		return false
	}

	return true
}

// searchPattern returns a case insensitive regular expression which matches the
// search text literally
func (f SubmissionFilter) searchPattern() string {
	return regexp.QuoteMeta(f.TestNameSearch)
}

// FindOptions controls ordering and paging of Find
type FindOptions struct {
	// Sort order of results
	Sort SortOrder

	// Skip this many results
	Skip int64

	// Limit results, 0 means no limit
	Limit int64
}

// SubmissionPatch holds the fields to change on a submission. Nil fields are left
// unchanged. Status must be supplied with Sections.
type SubmissionPatch struct {
	Team      *string
	TestName  *string
	Sections  models.Sections
	Status    *models.Outcome
	Timestamp *time.Time
	UpdatedAt time.Time
}

// SubmissionStore persists submissions
type SubmissionStore interface {
	// Find submissions matching filter
	Find(ctx context.Context, filter SubmissionFilter, opts FindOptions) ([]models.Submission, error)

	// FindOne returns the first submission matching filter, nil if none match
	FindOne(ctx context.Context, filter SubmissionFilter) (*models.Submission, error)

	// Insert a new submission, its ID is set
	Insert(ctx context.Context, sub *models.Submission) error

	// UpdateOne applies patch to the submission with id and returns the result, nil if
	// the submission does not exist
	UpdateOne(ctx context.Context, id primitive.ObjectID, patch SubmissionPatch) (*models.Submission, error)

	// DeleteOne deletes the first submission matching filter, returns false if none matched
	DeleteOne(ctx context.Context, filter SubmissionFilter) (bool, error)

	// Count submissions matching filter
	Count(ctx context.Context, filter SubmissionFilter) (int64, error)

	// Distinct returns the distinct values of a string field among matching submissions
	Distinct(ctx context.Context, field string, filter SubmissionFilter) ([]string, error)

	// All calls fn for every stored submission, stops at the first error
	All(ctx context.Context, fn func(models.Submission) error) error
}

// UserDirectory looks up users
type UserDirectory interface {
	// FindUserByID returns nil if no user has id
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)

	// FindUserByEmail returns nil if no user has email, matching is case insensitive
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	// FindContributors returns the contributors assigned to a coordinator ordered by name
	FindContributors(ctx context.Context, coordinatorID primitive.ObjectID) ([]models.User, error)

	// DistinctTeams returns the sorted distinct non empty team labels of a
	// coordinator's contributors
	DistinctTeams(ctx context.Context, coordinatorID primitive.ObjectID) ([]string, error)

	// InsertUser adds a user, its ID is set
	InsertUser(ctx context.Context, user *models.User) error

	// UpdateTeam changes a contributor's team label
	UpdateTeam(ctx context.Context, id primitive.ObjectID, team string, now time.Time) error
}

// ErrDuplicateEmail is returned by InsertUser when the email is taken
var ErrDuplicateEmail = errors.New("a user with this email already exists")

// ErrNotContributor is returned by UpdateTeam when the user is not a contributor
var ErrNotContributor = errors.New("only contributors have a team")

// ErrUserNotFound is returned by UpdateTeam when no user has the id
var ErrUserNotFound = errors.New("user not found")

// loadRecord converts a stored record into a Submission. Errors for corrupt records
// are plain errors, never a *models.ValidationError.
func loadRecord(rec models.SubmissionRecord) (*models.Submission, error) {
	sub, err := models.LoadSubmission(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission %s: %s", rec.ID.Hex(), err.Error())
	}

	return sub, nil
}
