package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kscout/runboard-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func record(managerID primitive.ObjectID, team, testName string, ts time.Time) models.SubmissionRecord {
	return models.SubmissionRecord{
		ID:        primitive.NewObjectID(),
		Team:      team,
		LeadID:    primitive.NewObjectID(),
		ManagerID: managerID,
		TestName:  testName,
		Sections: models.Sections{
			{Name: "s", Result: models.OutcomePassed, Subsections: []models.Subsection{}},
		},
		Status:    models.OutcomePassed,
		Timestamp: ts,
	}
}

// TestFilterBSON ensures every filter field becomes a query clause
func TestFilterBSON(t *testing.T) {
	id := primitive.NewObjectID()
	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	query := filterBSON(SubmissionFilter{
		ManagerID:      &id,
		Team:           "qa",
		From:           &from,
		To:             &to,
		TestNameSearch: "a.b",
	})

	assert.Equal(t, bson.D{
		{Key: "managerId", Value: id},
		{Key: "team", Value: "qa"},
		{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lte", Value: to}}},
		{Key: "testName", Value: bson.D{{Key: "$regex", Value: `a\.b`}, {Key: "$options", Value: "i"}}},
	}, query)

	assert.Equal(t, bson.D{}, filterBSON(SubmissionFilter{}))
}

// TestMemoryFindWindowInclusive ensures both time bounds are inclusive
func TestMemoryFindWindowInclusive(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySubmissions()
	manager := primitive.NewObjectID()

	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 15, 23, 59, 59, 999000000, time.UTC)

	s.Put(record(manager, "qa", "at-start", from))
	s.Put(record(manager, "qa", "at-end", to))
	s.Put(record(manager, "qa", "before", from.Add(-time.Millisecond)))
	s.Put(record(manager, "qa", "after", to.Add(time.Millisecond)))

	subs, err := s.Find(ctx, SubmissionFilter{ManagerID: &manager, From: &from, To: &to}, FindOptions{})
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "at-start", subs[0].TestName)
	assert.Equal(t, "at-end", subs[1].TestName)
}

// TestMemoryFindSortAndPage ensures sorting, skip and limit are applied in that order
func TestMemoryFindSortAndPage(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySubmissions()
	manager := primitive.NewObjectID()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"one", "two", "three", "four"} {
		s.Put(record(manager, "qa", name, base.Add(time.Duration(i)*time.Hour)))
	}

	subs, err := s.Find(ctx, SubmissionFilter{}, FindOptions{Sort: SortTimestampDesc, Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "three", subs[0].TestName)
	assert.Equal(t, "two", subs[1].TestName)

	subs, err = s.Find(ctx, SubmissionFilter{}, FindOptions{Skip: 10})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

// TestMemorySearchIsLiteral ensures search text is not treated as a pattern
func TestMemorySearchIsLiteral(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySubmissions()
	manager := primitive.NewObjectID()

	s.Put(record(manager, "qa", "Nightly Smoke", time.Now()))
	s.Put(record(manager, "qa", "regression", time.Now()))

	n, err := s.Count(ctx, SubmissionFilter{TestNameSearch: "smoke"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Count(ctx, SubmissionFilter{TestNameSearch: ".*"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

// TestMemoryUpdateAndDelete ensures patches apply and deletes respect the filter
func TestMemoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySubmissions()
	manager := primitive.NewObjectID()

	rec := record(manager, "qa", "nightly", time.Now())
	s.Put(rec)

	team := "core"
	status := models.OutcomeFailed
	updated, err := s.UpdateOne(ctx, rec.ID, SubmissionPatch{
		Team:     &team,
		Sections: models.Sections{{Name: "s", Result: models.OutcomeFailed}},
		Status:   &status,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "core", updated.Team)
	assert.Equal(t, models.OutcomeFailed, updated.Status())
	assert.False(t, updated.StatusStale())

	missing, err := s.UpdateOne(ctx, primitive.NewObjectID(), SubmissionPatch{})
	require.NoError(t, err)
	assert.Nil(t, missing)

	other := primitive.NewObjectID()
	deleted, err := s.DeleteOne(ctx, SubmissionFilter{ID: &rec.ID, LeadID: &other})
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.DeleteOne(ctx, SubmissionFilter{ID: &rec.ID, LeadID: &rec.LeadID})
	require.NoError(t, err)
	assert.True(t, deleted)
}

// TestMemoryCorruptRecordFails ensures a bad record surfaces as an error instead of being skipped
func TestMemoryCorruptRecordFails(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySubmissions()
	manager := primitive.NewObjectID()

	s.Put(record(manager, "qa", "good", time.Now()))
	bad := record(manager, "qa", "bad", time.Now())
	bad.Sections = nil
	s.Put(bad)

	_, err := s.Find(ctx, SubmissionFilter{ManagerID: &manager}, FindOptions{})
	assert.Error(t, err)

	otherManager := primitive.NewObjectID()
	subs, err := s.Find(ctx, SubmissionFilter{ManagerID: &otherManager}, FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

// TestCorruptRecordIsNotValidationError ensures unreadable stored records are not
// reported as invalid caller input
func TestCorruptRecordIsNotValidationError(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySubmissions()
	manager := primitive.NewObjectID()

	bad := record(manager, "qa", "bad", time.Now())
	bad.Sections = nil
	s.Put(bad)

	var validationErr *models.ValidationError

	_, err := loadRecord(bad)
	require.Error(t, err)
	assert.False(t, errors.As(err, &validationErr))

	_, err = s.FindOne(ctx, SubmissionFilter{ID: &bad.ID})
	require.Error(t, err)
	assert.False(t, errors.As(err, &validationErr))

	_, err = s.UpdateOne(ctx, bad.ID, SubmissionPatch{UpdatedAt: time.Now()})
	require.Error(t, err)
	assert.False(t, errors.As(err, &validationErr))
	assert.Contains(t, err.Error(), bad.ID.Hex())
}

// TestMemoryDistinct ensures distinct values are filtered, deduplicated and sorted
func TestMemoryDistinct(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySubmissions()
	manager := primitive.NewObjectID()
	other := primitive.NewObjectID()

	s.Put(record(manager, "web", "Nightly", time.Now()))
	s.Put(record(manager, "api", "Smoke", time.Now()))
	s.Put(record(manager, "web", "Smoke", time.Now()))
	s.Put(record(other, "mobile", "Nightly", time.Now()))

	teams, err := s.Distinct(ctx, "team", SubmissionFilter{ManagerID: &manager})
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "web"}, teams)

	names, err := s.Distinct(ctx, "testName", SubmissionFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Nightly", "Smoke"}, names)

	none, err := s.Distinct(ctx, "team", SubmissionFilter{ManagerID: &manager, Team: "mobile"})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = NewMemorySubmissions().Distinct(ctx, "status", SubmissionFilter{})
	assert.Error(t, err)
}

// TestMemoryUsers ensures teams are derived from the current contributor records
func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUsers()
	manager := models.User{Name: "Boss", Email: "Boss@Example.com", Membership: models.Coordinator{}}
	require.NoError(t, users.InsertUser(ctx, &manager))

	for _, lead := range []models.User{
		{Name: "Bea", Email: "bea@example.com", Membership: models.Contributor{Team: "web", ManagerID: manager.ID}},
		{Name: "Al", Email: "al@example.com", Membership: models.Contributor{Team: "api", ManagerID: manager.ID}},
		{Name: "Cy", Email: "cy@example.com", Membership: models.Contributor{Team: "web", ManagerID: manager.ID}},
		{Name: "Di", Email: "di@example.com", Membership: models.Contributor{Team: "ops", ManagerID: primitive.NewObjectID()}},
	} {
		lead := lead
		require.NoError(t, users.InsertUser(ctx, &lead))
	}

	assert.Equal(t, ErrDuplicateEmail, users.InsertUser(ctx, &models.User{Email: "boss@example.com"}))

	found, err := users.FindUserByEmail(ctx, " BOSS@example.com ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, manager.ID, found.ID)

	leads, err := users.FindContributors(ctx, manager.ID)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, "Al", leads[0].Name)

	teams, err := users.DistinctTeams(ctx, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "web"}, teams)

	assert.Equal(t, ErrNotContributor, users.UpdateTeam(ctx, manager.ID, "x", time.Now()))
	assert.Equal(t, ErrUserNotFound, users.UpdateTeam(ctx, primitive.NewObjectID(), "x", time.Now()))
	require.NoError(t, users.UpdateTeam(ctx, leads[0].ID, "platform", time.Now()))

	teams, err = users.DistinctTeams(ctx, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"platform", "web"}, teams)
}

// TestUserDocumentRoundTrip ensures contributor data survives storage and is required
func TestUserDocumentRoundTrip(t *testing.T) {
	managerID := primitive.NewObjectID()
	lead := models.User{
		ID:         primitive.NewObjectID(),
		Name:       "Lead",
		Email:      "LEAD@example.com",
		Membership: models.Contributor{Team: "qa", ManagerID: managerID},
	}

	doc := newUserDocument(lead)
	assert.Equal(t, "lead@example.com", doc.Email)

	restored, err := doc.User()
	require.NoError(t, err)
	assert.Equal(t, models.Contributor{Team: "qa", ManagerID: managerID}, restored.Membership)

	doc.Team = ""
	_, err = doc.User()
	assert.Error(t, err)

	doc.Role = "admin"
	_, err = doc.User()
	assert.Error(t, err)
}
