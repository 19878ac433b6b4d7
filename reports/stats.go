package reports

import (
	"context"
	"sort"

	"github.com/kscout/runboard-api/models"
	"github.com/kscout/runboard-api/parsing"
	"github.com/kscout/runboard-api/rollup"
	"github.com/kscout/runboard-api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusGroup is the occurrences of one outcome within a team
type StatusGroup struct {
	// Count of occurrences
	Count int `json:"count"`

	// Submissions holds the test name of the run behind each occurrence
	Submissions []string `json:"submissions"`
}

// TeamStats is the outcome breakdown of one team
type TeamStats struct {
	// Team label stored on the submissions
	Team string `json:"team"`

	// TotalOccurrences is the sum of every StatusBreakdown count
	TotalOccurrences int `json:"totalOccurrences"`

	// TotalSubmissions is the number of runs the team filed in the period
	TotalSubmissions int `json:"totalSubmissions"`

	// StatusBreakdown only holds outcomes which occurred
	StatusBreakdown map[models.Outcome]StatusGroup `json:"statusBreakdown"`
}

// OverallStats sums every team
type OverallStats struct {
	TotalSubmissions int           `json:"totalSubmissions"`
	TotalOccurrences int           `json:"totalOccurrences"`
	StatusCounts     rollup.Counts `json:"statusCounts"`
}

// Stats is a coordinator's outcome breakdown over a trailing period
type Stats struct {
	Period    parsing.Period `json:"period"`
	DateRange DateRange      `json:"dateRange"`
	Overall   OverallStats   `json:"overall"`

	// ByTeam is ordered by TotalOccurrences, largest first, ties by team name
	ByTeam []TeamStats `json:"byTeam"`
}

// PeriodStats groups every section and subsection result filed under the
// coordinator in the period by team and outcome. Unknown period tokens mean a week.
func (e Engine) PeriodStats(ctx context.Context, coordinatorID primitive.ObjectID, periodToken string) (*Stats, error) {
	period := parsing.ParsePeriod(periodToken)

	now := e.now()
	from := StartOfDay(period.Start(now))
	to := EndOfDay(now)

	subs, err := e.fetch(ctx, "get stats", coordinatorID, from, to, "", store.SortTimestampAsc)
	if err != nil {
		return nil, err
	}

	// {{{1 Group by team and outcome
	teams := map[string]*TeamStats{}
	counted := map[*models.Submission]bool{}

	rollup.Walk(subs, func(item rollup.Item) {
		team, ok := teams[item.Submission.Team]
		if !ok {
			team = &TeamStats{
				Team:            item.Submission.Team,
				StatusBreakdown: map[models.Outcome]StatusGroup{},
			}
			teams[team.Team] = team
		}

		group := team.StatusBreakdown[item.Outcome]
		group.Count++
		group.Submissions = append(group.Submissions, item.Submission.TestName)
		team.StatusBreakdown[item.Outcome] = group

		team.TotalOccurrences++
		if !counted[item.Submission] {
			counted[item.Submission] = true
			team.TotalSubmissions++
		}
	})

	// {{{1 Order teams
	stats := &Stats{
		Period:    period,
		DateRange: newDateRange(from, to),
		ByTeam:    make([]TeamStats, 0, len(teams)),
	}

	for _, team := range teams {
		stats.ByTeam = append(stats.ByTeam, *team)
	}

	sort.Slice(stats.ByTeam, func(i, j int) bool {
		a, b := stats.ByTeam[i], stats.ByTeam[j]
		if a.TotalOccurrences != b.TotalOccurrences {
			return a.TotalOccurrences > b.TotalOccurrences
		}

		return a.Team < b.Team
	})

	// {{{1 Overall totals
	stats.Overall.TotalSubmissions = len(subs)
	for _, team := range stats.ByTeam {
		stats.Overall.TotalOccurrences += team.TotalOccurrences
		for outcome, group := range team.StatusBreakdown {
			stats.Overall.StatusCounts.Add(outcome, group.Count)
		}
	}

	return stats, nil
}
