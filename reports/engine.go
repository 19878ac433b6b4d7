// Package reports answers coordinator facing report queries.
//
// Date windows are built in the engine's Location from calendar dates, no time
// zone conversion is applied to the inputs. Both window bounds are inclusive, a
// day runs from 00:00:00.000 to 23:59:59.999.
package reports

import (
	"context"
	"time"

	"github.com/kscout/runboard-api/models"
	"github.com/kscout/runboard-api/parsing"
	"github.com/kscout/runboard-api/rollup"
	"github.com/kscout/runboard-api/scope"
	"github.com/kscout/runboard-api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Engine runs report queries
type Engine struct {
	// Submissions is the submission store
	Submissions store.SubmissionStore

	// Scope resolves coordinator teams
	Scope scope.Resolver

	// Location is the server time zone used to build date windows, time.Local if nil
	Location *time.Location

	// Now returns the current time, time.Now if nil
	Now func() time.Time
}

// location returns the engine's time zone
func (e Engine) location() *time.Location {
	if e.Location == nil {
		return time.Local
	}

	return e.Location
}

// now returns the current time in the engine's time zone
func (e Engine) now() time.Time {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	return now().In(e.location())
}

// StartOfDay returns 00:00:00.000 of t's calendar date in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar date in t's location
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// DateRange is the calendar span of a report
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days,omitempty"`
}

// newDateRange formats a window's bounds as calendar dates
func newDateRange(from, to time.Time) DateRange {
	return DateRange{
		Start: from.Format(parsing.DateLayout),
		End:   to.Format(parsing.DateLayout),
	}
}

// fetch returns the coordinator's submissions in [from, to], optionally limited to
// one team. Every record must be aggregatable.
func (e Engine) fetch(ctx context.Context, op string, coordinatorID primitive.ObjectID, from, to time.Time, team string, sort store.SortOrder) ([]models.Submission, error) {
	subs, err := e.Submissions.Find(ctx, store.SubmissionFilter{
		ManagerID: &coordinatorID,
		Team:      team,
		From:      &from,
		To:        &to,
	}, store.FindOptions{Sort: sort})
	if err != nil {
		return nil, models.RetrievalError{Op: op, Err: err}
	}

	if err := rollup.Verify(subs); err != nil {
		return nil, models.RetrievalError{Op: op, Err: err}
	}

	return subs, nil
}

// Run is one submission with its own chart data
type Run struct {
	Submission models.Submission `json:"submission"`
	ChartData  rollup.ChartData  `json:"chartData"`
}

// RunsReport lists the runs of a single day
type RunsReport struct {
	// Date queried, YYYY-MM-DD
	Date string `json:"date"`

	// Team filter, "all" when not filtered
	Team string `json:"team"`

	// Runs ordered by timestamp, oldest first
	Runs []Run `json:"runs"`

	// TotalRuns is len(Runs)
	TotalRuns int `json:"totalRuns"`

	// AggregateData is the chart data across all runs
	AggregateData rollup.ChartData `json:"aggregateData"`
}

// RunsForDate returns the coordinator's runs on a calendar date, optionally
// limited to one team
func (e Engine) RunsForDate(ctx context.Context, coordinatorID primitive.ObjectID, date, team string) (*RunsReport, error) {
	day, err := parsing.ParseDate("date", date, e.location())
	if err != nil {
		return nil, err
	}

	team, err = parsing.ParseTeam(team)
	if err != nil {
		return nil, err
	}

	subs, err := e.fetch(ctx, "get runs", coordinatorID, StartOfDay(day), EndOfDay(day), team,
		store.SortTimestampAsc)
	if err != nil {
		return nil, err
	}

	report := &RunsReport{
		Date:          date,
		Team:          team,
		Runs:          make([]Run, 0, len(subs)),
		TotalRuns:     len(subs),
		AggregateData: rollup.Chart(subs),
	}

	if len(report.Team) == 0 {
		report.Team = "all"
	}

	for i := range subs {
		report.Runs = append(report.Runs, Run{
			Submission: subs[i],
			ChartData:  rollup.Chart(subs[i : i+1]),
		})
	}

	return report, nil
}

// TeamsReport lists a coordinator's teams
type TeamsReport struct {
	Teams          []scope.Roster `json:"teams"`
	TotalTeams     int            `json:"totalTeams"`
	TotalTeamLeads int            `json:"totalTeamLeads"`

	// SubmissionTeams are the team labels stored on the coordinator's submissions.
	// Labels of renamed teams stay here after they leave Teams.
	SubmissionTeams []string `json:"submissionTeams"`
}

// Teams returns the coordinator's current teams with their leads
func (e Engine) Teams(ctx context.Context, coordinatorID primitive.ObjectID) (*TeamsReport, error) {
	rosters, totalLeads, err := e.Scope.Rosters(ctx, coordinatorID)
	if err != nil {
		return nil, err
	}

	labels, err := e.Submissions.Distinct(ctx, "team", store.SubmissionFilter{
		ManagerID: &coordinatorID,
	})
	if err != nil {
		return nil, models.RetrievalError{Op: "list submission teams", Err: err}
	}

	return &TeamsReport{
		Teams:           rosters,
		TotalTeams:      len(rosters),
		TotalTeamLeads:  totalLeads,
		SubmissionTeams: labels,
	}, nil
}
