// Package rollup aggregates the results of many submissions for charts and reports.
//
// Every rollup walks the same flattened view of a set of submissions: each
// section's own result followed by the results of its subsections. A submission
// with 3 sections and 5 subsections contributes 8 occurrences. The derived status
// of a submission is never counted separately.
package rollup

import (
	"fmt"

	"github.com/kscout/runboard-api/models"
)

// Item is one occurrence of a result label inside a set of submissions
type Item struct {
	models.Occurrence

	// Submission the occurrence belongs to
	Submission *models.Submission
}

// Name returns the qualified label of the item, see models.Occurrence.QualifiedName
func (i Item) Name() string {
	return i.QualifiedName(i.Submission.TestName)
}

// Walk calls fn for every occurrence in subs. Submissions are visited in order,
// then sections, then subsections.
func Walk(subs []models.Submission, fn func(Item)) {
	for i := range subs {
		sub := &subs[i]
		sub.Each(func(o models.Occurrence) {
			fn(Item{
				Occurrence: o,
				Submission: sub,
			})
		})
	}
}

// Verify returns an error if any submission cannot be rolled up. One bad record
// fails the whole set so aggregates never silently drop data.
func Verify(subs []models.Submission) error {
	for _, sub := range subs {
		if err := sub.Sections().Check(); err != nil {
			return fmt.Errorf("submission %s cannot be aggregated: %s",
				sub.ID.Hex(), err.Error())
		}
	}

	return nil
}

// Counts holds the number of occurrences of each outcome
type Counts struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
}

// Add increments the counter for o
func (c *Counts) Add(o models.Outcome, n int) {
	switch o {
	case models.OutcomePassed:
		c.Passed += n
	case models.OutcomeFailed:
		c.Failed += n
	case models.OutcomeSkipped:
		c.Skipped += n
	case models.OutcomeErrored:
		c.Errored += n
	}
}

// Get returns the counter for o
func (c Counts) Get(o models.Outcome) int {
	switch o {
	case models.OutcomePassed:
		return c.Passed
	case models.OutcomeFailed:
		return c.Failed
	case models.OutcomeSkipped:
		return c.Skipped
	case models.OutcomeErrored:
		return c.Errored
	}

	return 0
}

// Total is the sum of all counters
func (c Counts) Total() int {
	return c.Passed + c.Failed + c.Skipped + c.Errored
}

// Merge adds other's counters to c
func (c *Counts) Merge(other Counts) {
	for _, o := range models.Outcomes {
		c.Add(o, other.Get(o))
	}
}

// Names holds qualified occurrence names grouped by outcome
type Names struct {
	Passed  []string `json:"passed"`
	Failed  []string `json:"failed"`
	Skipped []string `json:"skipped"`
	Errored []string `json:"errored"`
}

// NewNames returns a Names with every list empty, not nil
func NewNames() Names {
	return Names{
		Passed:  []string{},
		Failed:  []string{},
		Skipped: []string{},
		Errored: []string{},
	}
}

// Append adds name to the list for o
func (n *Names) Append(o models.Outcome, name string) {
	switch o {
	case models.OutcomePassed:
		n.Passed = append(n.Passed, name)
	case models.OutcomeFailed:
		n.Failed = append(n.Failed, name)
	case models.OutcomeSkipped:
		n.Skipped = append(n.Skipped, name)
	case models.OutcomeErrored:
		n.Errored = append(n.Errored, name)
	}
}

// Get returns the list for o
func (n Names) Get(o models.Outcome) []string {
	switch o {
	case models.OutcomePassed:
		return n.Passed
	case models.OutcomeFailed:
		return n.Failed
	case models.OutcomeSkipped:
		return n.Skipped
	case models.OutcomeErrored:
		return n.Errored
	}

	return nil
}

// CountStatuses counts every occurrence of each outcome in subs
func CountStatuses(subs []models.Submission) Counts {
	counts := Counts{}

	Walk(subs, func(item Item) {
		counts.Add(item.Outcome, 1)
	})

	return counts
}

// NamesByStatus collects the qualified name of every occurrence in subs, grouped by
// outcome. Names keep walk order.
func NamesByStatus(subs []models.Submission) Names {
	names := NewNames()

	Walk(subs, func(item Item) {
		names.Append(item.Outcome, item.Name())
	})

	return names
}

// ChartData is the chart payload for a set of submissions
type ChartData struct {
	StatusCounts      Counts `json:"statusCounts"`
	TestNamesByStatus Names  `json:"testNamesByStatus"`
}

// Chart computes both rollups for subs in a single walk
func Chart(subs []models.Submission) ChartData {
	data := ChartData{
		TestNamesByStatus: NewNames(),
	}

	Walk(subs, func(item Item) {
		data.StatusCounts.Add(item.Outcome, 1)
		data.TestNamesByStatus.Append(item.Outcome, item.Name())
	})

	return data
}
