package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kscout/runboard-api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemorySubmissions is a SubmissionStore which keeps records in memory
type MemorySubmissions struct {
	mu      sync.RWMutex
	records []models.SubmissionRecord
}

// NewMemorySubmissions creates an empty MemorySubmissions
func NewMemorySubmissions() *MemorySubmissions {
	return &MemorySubmissions{}
}

// load converts records into submissions
func (m *MemorySubmissions) load(recs []models.SubmissionRecord) ([]models.Submission, error) {
	subs := make([]models.Submission, 0, len(recs))
	for _, rec := range recs {
		sub, err := loadRecord(rec)
		if err != nil {
			return nil, err
		}

		subs = append(subs, *sub)
	}

	return subs, nil
}

// matching returns the submissions selected by filter in insertion order
func (m *MemorySubmissions) matching(filter SubmissionFilter) ([]models.Submission, error) {
	recs := []models.SubmissionRecord{}
	for _, rec := range m.records {
		if filter.matchesRecord(rec) {
			recs = append(recs, rec)
		}
	}

	return m.load(recs)
}

// Find implements SubmissionStore
func (m *MemorySubmissions) Find(ctx context.Context, filter SubmissionFilter, opts FindOptions) ([]models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs, err := m.matching(filter)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(subs, func(i, j int) bool {
		if opts.Sort == SortTimestampDesc {
			return subs[i].Timestamp.After(subs[j].Timestamp)
		}

		return subs[i].Timestamp.Before(subs[j].Timestamp)
	})

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(subs)) {
			return []models.Submission{}, nil
		}
		subs = subs[opts.Skip:]
	}

	if opts.Limit > 0 && opts.Limit < int64(len(subs)) {
		subs = subs[:opts.Limit]
	}

	return subs, nil
}

// FindOne implements SubmissionStore
func (m *MemorySubmissions) FindOne(ctx context.Context, filter SubmissionFilter) (*models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs, err := m.matching(filter)
	if err != nil {
		return nil, err
	}

	if len(subs) == 0 {
		return nil, nil
	}

	return &subs[0], nil
}

// Insert implements SubmissionStore
func (m *MemorySubmissions) Insert(ctx context.Context, sub *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}

	m.records = append(m.records, sub.Record())

	return nil
}

// UpdateOne implements SubmissionStore
func (m *MemorySubmissions) UpdateOne(ctx context.Context, id primitive.ObjectID, patch SubmissionPatch) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		rec := &m.records[i]
		if rec.ID != id {
			continue
		}

		if patch.Team != nil {
			rec.Team = *patch.Team
		}
		if patch.TestName != nil {
			rec.TestName = *patch.TestName
		}
		if patch.Sections != nil {
			rec.Sections = patch.Sections
		}
		if patch.Status != nil {
			rec.Status = *patch.Status
		}
		if patch.Timestamp != nil {
			rec.Timestamp = *patch.Timestamp
		}
		rec.UpdatedAt = patch.UpdatedAt

		return loadRecord(*rec)
	}

	return nil, nil
}

// DeleteOne implements SubmissionStore
func (m *MemorySubmissions) DeleteOne(ctx context.Context, filter SubmissionFilter) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, rec := range m.records {
		if filter.matchesRecord(rec) {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return true, nil
		}
	}

	return false, nil
}

// Count implements SubmissionStore
func (m *MemorySubmissions) Count(ctx context.Context, filter SubmissionFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs, err := m.matching(filter)
	if err != nil {
		return 0, err
	}

	return int64(len(subs)), nil
}

// Distinct implements SubmissionStore. Supports the team and testName fields.
func (m *MemorySubmissions) Distinct(ctx context.Context, field string, filter SubmissionFilter) ([]string, error) {
	if field != "team" && field != "testName" {
		return nil, fmt.Errorf("distinct not supported for field \"%s\"", field)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	subs, err := m.matching(filter)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	values := []string{}

	for _, sub := range subs {
		value := sub.Team
		if field == "testName" {
			value = sub.TestName
		}

		if !seen[value] {
			seen[value] = true
			values = append(values, value)
		}
	}

	sort.Strings(values)

	return values, nil
}

// All implements SubmissionStore
func (m *MemorySubmissions) All(ctx context.Context, fn func(models.Submission) error) error {
	m.mu.RLock()
	subs, err := m.load(m.records)
	m.mu.RUnlock()

	if err != nil {
		return err
	}

	for _, sub := range subs {
		if err := fn(sub); err != nil {
			return err
		}
	}

	return nil
}

// Put stores rec as is, without recomputing its status. Used to seed legacy or
// corrupt records.
func (m *MemorySubmissions) Put(rec models.SubmissionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
}

// MemoryUsers is a UserDirectory which keeps users in memory
type MemoryUsers struct {
	mu    sync.RWMutex
	users []models.User
}

// NewMemoryUsers creates an empty MemoryUsers
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{}
}

// FindUserByID implements UserDirectory
func (m *MemoryUsers) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}

	return nil, nil
}

// FindUserByEmail implements UserDirectory
func (m *MemoryUsers) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = normalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}

	return nil, nil
}

// FindContributors implements UserDirectory
func (m *MemoryUsers) FindContributors(ctx context.Context, coordinatorID primitive.ObjectID) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	leads := []models.User{}
	for _, u := range m.users {
		if c, ok := u.Membership.(models.Contributor); ok && c.ManagerID == coordinatorID {
			leads = append(leads, u)
		}
	}

	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].Name < leads[j].Name
	})

	return leads, nil
}

// DistinctTeams implements UserDirectory
func (m *MemoryUsers) DistinctTeams(ctx context.Context, coordinatorID primitive.ObjectID) ([]string, error) {
	leads, err := m.FindContributors(ctx, coordinatorID)
	if err != nil {
		return nil, err
	}

	return distinctTeams(leads), nil
}

// InsertUser implements UserDirectory
func (m *MemoryUsers) InsertUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.Email = normalizeEmail(user.Email)
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}

	m.users = append(m.users, *user)

	return nil
}

// UpdateTeam implements UserDirectory
func (m *MemoryUsers) UpdateTeam(ctx context.Context, id primitive.ObjectID, team string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.users {
		u := &m.users[i]
		if u.ID != id {
			continue
		}

		c, ok := u.Membership.(models.Contributor)
		if !ok {
			return ErrNotContributor
		}

		c.Team = team
		u.Membership = c
		u.UpdatedAt = now

		return nil
	}

	return ErrUserNotFound
}

// normalizeEmail lowercases and trims an email address
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// distinctTeams returns the sorted distinct non empty team labels of leads
func distinctTeams(leads []models.User) []string {
	seen := map[string]bool{}
	teams := []string{}

	for _, lead := range leads {
		team := lead.Team()
		if len(team) == 0 || seen[team] {
			continue
		}

		seen[team] = true
		teams = append(teams, team)
	}

	sort.Strings(teams)

	return teams
}
