// Package submissions implements the contributor facing submission operations and
// profile updates.
//
// Every write recomputes the submission's status from its sections. Records
// outside the actor's scope are reported as not found.
package submissions

import (
	"context"
	"fmt"
	"time"

	"github.com/kscout/runboard-api/models"
	"github.com/kscout/runboard-api/parsing"
	"github.com/kscout/runboard-api/scope"
	"github.com/kscout/runboard-api/store"
	"github.com/kscout/runboard-api/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service performs submission operations on behalf of an actor
type Service struct {
	// Submissions is the submission store
	Submissions store.SubmissionStore

	// Users is the user directory
	Users store.UserDirectory

	// Scope resolves which submissions an actor may read
	Scope scope.Resolver

	// Now returns the current time, time.Now if nil
	Now func() time.Time
}

// now returns the current time
func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

// lead loads the contributor behind actor
func (s Service) lead(ctx context.Context, actor models.Actor, action string) (*models.User, error) {
	if err := actor.Require(models.RoleContributor, action); err != nil {
		return nil, err
	}

	user, err := s.Users.FindUserByID(ctx, actor.ID)
	if err != nil {
		return nil, models.RetrievalError{Op: "find user", Err: err}
	}

	if user == nil {
		return nil, models.NotFoundError{What: "user"}
	}

	return user, nil
}

// Create stores a new submission owned by the actor. The actor's current team and
// coordinator are copied onto it. Any status in input is ignored.
func (s Service) Create(ctx context.Context, actor models.Actor, input models.SubmissionInput) (*models.Submission, error) {
	user, err := s.lead(ctx, actor, "create submissions")
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateSubmission(&input); err != nil {
		return nil, err
	}

	var timestamp time.Time
	if input.Timestamp != nil {
		timestamp = *input.Timestamp
	}

	sub, err := models.NewSubmission(*user, input.Team, input.TestName, input.Sections,
		timestamp, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.Submissions.Insert(ctx, sub); err != nil {
		return nil, models.RetrievalError{Op: "create submission", Err: err}
	}

	return sub, nil
}

// owned returns the filter selecting the actor's own submission with id
func owned(actor models.Actor, id primitive.ObjectID) store.SubmissionFilter {
	return store.SubmissionFilter{
		ID:     &id,
		LeadID: &actor.ID,
	}
}

// Update applies changes to one of the actor's own submissions. The status is
// recomputed and rewritten on every update.
func (s Service) Update(ctx context.Context, actor models.Actor, id primitive.ObjectID, changes models.SubmissionChanges) (*models.Submission, error) {
	if err := actor.Require(models.RoleContributor, "update submissions"); err != nil {
		return nil, err
	}

	if err := validation.ValidateChanges(&changes); err != nil {
		return nil, err
	}

	sub, err := s.Submissions.FindOne(ctx, owned(actor, id))
	if err != nil {
		return nil, models.RetrievalError{Op: "find submission", Err: err}
	}

	if sub == nil {
		return nil, models.NotFoundError{What: "submission"}
	}

	if changes.Sections != nil {
		if err := sub.SetSections(changes.Sections); err != nil {
			return nil, err
		}
	}

	status := sub.Status()
	patch := store.SubmissionPatch{
		Team:      changes.Team,
		TestName:  changes.TestName,
		Sections:  sub.Sections(),
		Status:    &status,
		Timestamp: changes.Timestamp,
		UpdatedAt: s.now(),
	}

	updated, err := s.Submissions.UpdateOne(ctx, id, patch)
	if err != nil {
		return nil, models.RetrievalError{Op: "update submission", Err: err}
	}

	if updated == nil {
		return nil, models.NotFoundError{What: "submission"}
	}

	return updated, nil
}

// Delete removes one of the actor's own submissions
func (s Service) Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	if err := actor.Require(models.RoleContributor, "delete submissions"); err != nil {
		return err
	}

	deleted, err := s.Submissions.DeleteOne(ctx, owned(actor, id))
	if err != nil {
		return models.RetrievalError{Op: "delete submission", Err: err}
	}

	if !deleted {
		return models.NotFoundError{What: "submission"}
	}

	return nil
}

// Pagination describes one page of a listing
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int   `json:"limit"`
}

// newPagination describes page within count results
func newPagination(page parsing.Page, count int64) Pagination {
	limit := int64(page.Limit)
	totalPages := int((count + limit - 1) / limit)

	return Pagination{
		CurrentPage: page.Number,
		TotalPages:  totalPages,
		TotalCount:  count,
		HasNextPage: page.Number < totalPages,
		HasPrevPage: page.Number > 1,
		Limit:       page.Limit,
	}
}

// Listing is one page of submissions
type Listing struct {
	Submissions []models.Submission `json:"submissions"`
	Pagination  Pagination          `json:"pagination"`
}

// ListMine returns a page of the actor's own submissions, newest first. A non empty
// search only keeps test names which contain it, ignoring case.
func (s Service) ListMine(ctx context.Context, actor models.Actor, page parsing.Page, search string) (*Listing, error) {
	if err := actor.Require(models.RoleContributor, "list own submissions"); err != nil {
		return nil, err
	}

	search, err := parsing.ParseSearch(search)
	if err != nil {
		return nil, err
	}

	filter := store.SubmissionFilter{
		LeadID:         &actor.ID,
		TestNameSearch: search,
	}

	count, err := s.Submissions.Count(ctx, filter)
	if err != nil {
		return nil, models.RetrievalError{Op: "count submissions", Err: err}
	}

	subs, err := s.Submissions.Find(ctx, filter, store.FindOptions{
		Sort:  store.SortTimestampDesc,
		Skip:  page.Skip(),
		Limit: int64(page.Limit),
	})
	if err != nil {
		return nil, models.RetrievalError{Op: "list submissions", Err: err}
	}

	return &Listing{
		Submissions: subs,
		Pagination:  newPagination(page, count),
	}, nil
}

// GetByID returns a submission the actor may read. Contributors may read their own
// submissions, coordinators the submissions recorded under them.
func (s Service) GetByID(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Submission, error) {
	filter, err := s.Scope.Scope(actor)
	if err != nil {
		return nil, err
	}
	filter.ID = &id

	sub, err := s.Submissions.FindOne(ctx, filter)
	if err != nil {
		return nil, models.RetrievalError{Op: "find submission", Err: err}
	}

	if sub == nil {
		return nil, models.NotFoundError{What: "submission"}
	}

	return sub, nil
}

// Profile returns the actor's profile
func (s Service) Profile(ctx context.Context, actor models.Actor) (*models.Profile, error) {
	user, err := s.Users.FindUserByID(ctx, actor.ID)
	if err != nil {
		return nil, models.RetrievalError{Op: "find user", Err: err}
	}

	if user == nil {
		return nil, models.NotFoundError{What: "user"}
	}

	profile := user.Profile()
	return &profile, nil
}

// UpdateProfile renames the actor's team. Existing submissions keep the team they
// were created with.
func (s Service) UpdateProfile(ctx context.Context, actor models.Actor, changes models.ProfileChanges) (*models.Profile, error) {
	if err := actor.Require(models.RoleContributor, "change teams"); err != nil {
		return nil, err
	}

	if err := validation.ValidateProfile(&changes); err != nil {
		return nil, err
	}

	err := s.Users.UpdateTeam(ctx, actor.ID, changes.Team, s.now())
	if err == store.ErrUserNotFound {
		return nil, models.NotFoundError{What: "user"}
	} else if err != nil {
		return nil, models.RetrievalError{
			Op:  "update team",
			Err: fmt.Errorf("failed to set team to \"%s\": %s", changes.Team, err.Error()),
		}
	}

	return s.Profile(ctx, actor)
}
