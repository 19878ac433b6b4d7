package rollup

import (
	"testing"
	"time"

	"github.com/kscout/runboard-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newSubmission(t *testing.T, testName string, sections ...models.Section) models.Submission {
	lead := models.User{
		ID: primitive.NewObjectID(),
		Membership: models.Contributor{
			Team:      "qa",
			ManagerID: primitive.NewObjectID(),
		},
	}

	sub, err := models.NewSubmission(lead, "", testName, sections, time.Time{}, time.Now())
	require.NoError(t, err)

	return *sub
}

// TestCountStatusesCountsEveryLevel ensures sections and subsections are each counted once
func TestCountStatusesCountsEveryLevel(t *testing.T) {
	sub := newSubmission(t, "T1", models.Section{
		Name:   "S1",
		Result: models.OutcomeFailed,
		Subsections: []models.Subsection{
			{Name: "x", Result: models.OutcomePassed},
			{Name: "y", Result: models.OutcomeErrored},
		},
	})

	counts := CountStatuses([]models.Submission{sub})

	assert.Equal(t, Counts{Passed: 1, Failed: 1, Skipped: 0, Errored: 1}, counts)
	assert.Equal(t, 3, counts.Total())
}

// TestCountStatusesEmpty ensures no submissions produce all zero counters
func TestCountStatusesEmpty(t *testing.T) {
	assert.Equal(t, Counts{}, CountStatuses(nil))
	assert.Equal(t, Counts{}, CountStatuses([]models.Submission{}))
}

// TestCountStatusesOrderIndependent ensures input order does not change the counts
func TestCountStatusesOrderIndependent(t *testing.T) {
	a := newSubmission(t, "A", models.Section{Name: "s", Result: models.OutcomeSkipped})
	b := newSubmission(t, "B", models.Section{Name: "s", Result: models.OutcomeFailed,
		Subsections: []models.Subsection{{Name: "x", Result: models.OutcomeFailed}}})

	assert.Equal(t, CountStatuses([]models.Submission{a, b}), CountStatuses([]models.Submission{b, a}))
}

// TestNamesByStatusQualifies ensures names carry the test and section names
func TestNamesByStatusQualifies(t *testing.T) {
	sub := newSubmission(t, "T1", models.Section{Name: "S1", Result: models.OutcomeFailed})

	names := NamesByStatus([]models.Submission{sub})

	assert.Equal(t, []string{"T1 - S1"}, names.Failed)
	assert.Equal(t, []string{}, names.Passed)
	assert.Equal(t, []string{}, names.Skipped)
	assert.Equal(t, []string{}, names.Errored)
}

// TestNamesByStatusOrder ensures names follow submission, section, subsection order
func TestNamesByStatusOrder(t *testing.T) {
	first := newSubmission(t, "A",
		models.Section{Name: "one", Result: models.OutcomePassed, Subsections: []models.Subsection{
			{Name: "sub", Result: models.OutcomePassed},
		}},
		models.Section{Name: "two", Result: models.OutcomePassed},
	)
	second := newSubmission(t, "B", models.Section{Name: "one", Result: models.OutcomePassed})

	names := NamesByStatus([]models.Submission{first, second})

	assert.Equal(t, []string{"A - one", "A - one - sub", "A - two", "B - one"}, names.Passed)
}

// TestChartMatchesSeparateRollups ensures the combined walk matches the individual rollups
func TestChartMatchesSeparateRollups(t *testing.T) {
	subs := []models.Submission{
		newSubmission(t, "A", models.Section{Name: "s", Result: models.OutcomeErrored,
			Subsections: []models.Subsection{{Name: "x", Result: models.OutcomeSkipped}}}),
		newSubmission(t, "B", models.Section{Name: "s", Result: models.OutcomePassed}),
	}

	chart := Chart(subs)

	assert.Equal(t, CountStatuses(subs), chart.StatusCounts)
	assert.Equal(t, NamesByStatus(subs), chart.TestNamesByStatus)
}

// TestVerifyRejectsBrokenRecord ensures a single invalid record fails the whole set
func TestVerifyRejectsBrokenRecord(t *testing.T) {
	good := newSubmission(t, "A", models.Section{Name: "s", Result: models.OutcomePassed})

	assert.NoError(t, Verify([]models.Submission{good}))
	assert.Error(t, Verify([]models.Submission{good, {ID: primitive.NewObjectID()}}))
}

// TestCountsMerge ensures merging sums every counter
func TestCountsMerge(t *testing.T) {
	c := Counts{Passed: 1, Errored: 2}
	c.Merge(Counts{Passed: 2, Failed: 1, Skipped: 4})

	assert.Equal(t, Counts{Passed: 3, Failed: 1, Skipped: 4, Errored: 2}, c)
}
