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

// RecentActivityLimit is the number of submissions in Dashboard.RecentActivity
const RecentActivityLimit = 5

// DashboardSummary holds the headline numbers of a dashboard
type DashboardSummary struct {
	TotalTeams       int       `json:"totalTeams"`
	TotalTeamLeads   int       `json:"totalTeamLeads"`
	TotalSubmissions int       `json:"totalSubmissions"`
	DateRange        DateRange `json:"dateRange"`
}

// DateGroup is the submissions of one calendar date
type DateGroup struct {
	Date        string              `json:"date"`
	Count       int                 `json:"count"`
	Submissions []models.Submission `json:"submissions"`
}

// TeamSummary is the dashboard row of one team
type TeamSummary struct {
	Name             string       `json:"name"`
	LeadsCount       int          `json:"leadsCount"`
	SubmissionsCount int          `json:"submissionsCount"`
	Leads            []scope.Lead `json:"leads"`
}

// Dashboard is a coordinator's overview of a trailing window of days
type Dashboard struct {
	Summary DashboardSummary `json:"summary"`

	// StatusCounts across every submission in the window
	StatusCounts rollup.Counts `json:"statusCounts"`

	// SubmissionsByDate groups submissions by the date of their timestamp, oldest first
	SubmissionsByDate []DateGroup `json:"submissionsByDate"`

	// RecentActivity is the newest submissions, newest first
	RecentActivity []models.Submission `json:"recentActivity"`

	// Teams are the coordinator's current teams. Submissions filed under a team
	// label no current lead uses are counted in the totals only.
	Teams []TeamSummary `json:"teams"`
}

// DashboardSummary returns the coordinator's dashboard for the window starting
// windowDays before today and ending at the end of today
func (e Engine) DashboardSummary(ctx context.Context, coordinatorID primitive.ObjectID, windowDays int) (*Dashboard, error) {
	if windowDays < 0 {
		return nil, models.NewValidationError("days", "must not be negative")
	}

	now := e.now()
	from := StartOfDay(now.AddDate(0, 0, -windowDays))
	to := EndOfDay(now)

	subs, err := e.fetch(ctx, "get dashboard summary", coordinatorID, from, to, "",
		store.SortTimestampAsc)
	if err != nil {
		return nil, err
	}

	rosters, totalLeads, err := e.Scope.Rosters(ctx, coordinatorID)
	if err != nil {
		return nil, err
	}

	dateRange := newDateRange(from, to)
	dateRange.Days = windowDays

	dash := &Dashboard{
		Summary: DashboardSummary{
			TotalTeams:       len(rosters),
			TotalTeamLeads:   totalLeads,
			TotalSubmissions: len(subs),
			DateRange:        dateRange,
		},
		StatusCounts:      rollup.CountStatuses(subs),
		SubmissionsByDate: groupByDate(subs, e.location()),
		RecentActivity:    recent(subs, RecentActivityLimit),
		Teams:             make([]TeamSummary, 0, len(rosters)),
	}

	perTeam := map[string]int{}
	for _, sub := range subs {
		perTeam[sub.Team]++
	}

	for _, roster := range rosters {
		dash.Teams = append(dash.Teams, TeamSummary{
			Name:             roster.Name,
			LeadsCount:       len(roster.Leads),
			SubmissionsCount: perTeam[roster.Name],
			Leads:            roster.Leads,
		})
	}

	return dash, nil
}

// groupByDate groups submissions sorted by ascending timestamp by their calendar
// date in loc
func groupByDate(subs []models.Submission, loc *time.Location) []DateGroup {
	groups := []DateGroup{}

	for _, sub := range subs {
		date := sub.Timestamp.In(loc).Format(parsing.DateLayout)

		if len(groups) == 0 || groups[len(groups)-1].Date != date {
			groups = append(groups, DateGroup{
				Date:        date,
				Submissions: []models.Submission{},
			})
		}

		group := &groups[len(groups)-1]
		group.Submissions = append(group.Submissions, sub)
		group.Count++
	}

	return groups
}

// recent returns up to n of the newest submissions, newest first. subs must be
// sorted by ascending timestamp.
func recent(subs []models.Submission, n int) []models.Submission {
	out := []models.Submission{}

	for i := len(subs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, subs[i])
	}

	return out
}
