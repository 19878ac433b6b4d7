package cli

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/kscout/runboard-api/models"
	"github.com/kscout/runboard-api/reports"
	"github.com/kscout/runboard-api/scope"
	"github.com/kscout/runboard-api/store"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

func init() {
	color.NoColor = true
}

// seeded loads the test fixture into memory stores
func seeded(t *testing.T) (*store.MemoryUsers, *store.MemorySubmissions, *seedResult) {
	f, err := loadFixture(filepath.Join("testdata", "seed.yaml"))
	require.NoError(t, err)

	users := store.NewMemoryUsers()
	subs := store.NewMemorySubmissions()

	result, err := seed(context.Background(), *f, users, subs, now)
	require.NoError(t, err)

	return users, subs, result
}

func TestSeed(t *testing.T) {
	users, subs, result := seeded(t)
	ctx := context.Background()

	assert.Len(t, result.Users, 3)
	assert.Equal(t, 3, result.Submissions)

	lee, err := users.FindUserByEmail(ctx, "lee@example.com")
	require.NoError(t, err)
	require.NotNil(t, lee)
	assert.Equal(t, "web", lee.Team())

	all, err := subs.Find(ctx, store.SubmissionFilter{}, store.FindOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "Nightly", all[0].TestName)
	assert.Equal(t, now.AddDate(0, 0, -2), all[0].Timestamp)
	assert.Equal(t, "api", all[0].Team)
	assert.Equal(t, models.OutcomeFailed, all[1].Status())
	assert.Equal(t, models.OutcomeErrored, all[2].Status())
}

func TestLoadFixtureStrict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("users: []\nteams: []\n"), 0644))

	_, err := loadFixture(path)
	assert.Error(t, err)
}

func TestSeedRejectsUnknownManager(t *testing.T) {
	f := fixture{Users: []fixtureUser{{
		Name: "Lost", Email: "lost@example.com", Role: "contributor", Team: "x",
		Manager: "nobody@example.com",
	}}}

	_, err := seed(context.Background(), f, store.NewMemoryUsers(), store.NewMemorySubmissions(), now)
	assert.Error(t, err)
}

func TestSeedRejectsBadOutcome(t *testing.T) {
	users, subs, _ := seeded(t)

	f := fixture{Submissions: []fixtureSubmission{{
		Lead:     "lee@example.com",
		TestName: "broken",
		Sections: []fixtureSection{{Name: "s", Result: "exploded"}},
	}}}

	_, err := seed(context.Background(), f, users, subs, now)
	assert.Error(t, err)
}

func TestWriteReports(t *testing.T) {
	users, subs, _ := seeded(t)
	ctx := context.Background()

	morgan, err := findCoordinator(ctx, users, "morgan@example.com")
	require.NoError(t, err)

	_, err = findCoordinator(ctx, users, "lee@example.com")
	assert.Error(t, err)

	engine := reports.Engine{
		Submissions: subs,
		Scope:       scope.Resolver{Users: users},
		Location:    time.UTC,
		Now: func() time.Time {
			return now
		},
	}

	runs, err := engine.RunsForDate(ctx, morgan, "2024-03-15", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	writeRuns(&buf, runs)
	assert.Contains(t, buf.String(), "Runs on 2024-03-15, team all: 2")
	assert.Contains(t, buf.String(), "passed=2 skipped=1 failed=1 errored=1")
	assert.Contains(t, buf.String(), "09:30:00 [failed] Checkout smoke (web)")
	assert.Contains(t, buf.String(), "      failed Remove item")

	dash, err := engine.DashboardSummary(ctx, morgan, 7)
	require.NoError(t, err)

	buf.Reset()
	writeDashboard(&buf, dash)
	assert.Contains(t, buf.String(), "3 submissions, 2 teams, 2 leads")
	assert.Contains(t, buf.String(), "  web: 1 leads, 1 submissions")

	stats, err := engine.PeriodStats(ctx, morgan, "week")
	require.NoError(t, err)

	buf.Reset()
	writeStats(&buf, stats)
	assert.Contains(t, buf.String(), "Stats for the last week, 2024-03-08 to 2024-03-15")
	assert.Contains(t, buf.String(), "web: 1 submissions, 4 results")
}

func TestRootCmd(t *testing.T) {
	names := []string{}
	for _, cmd := range RootCmd().Commands() {
		names = append(names, cmd.Name())
	}

	assert.Subset(t, names, []string{"serve", "seed", "report", "recompute"})
}
