package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kscout/runboard-api/models"
	"github.com/kscout/runboard-api/reports"
	"github.com/kscout/runboard-api/rollup"
	"github.com/kscout/runboard-api/store"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// outcomeColors colors outcome labels in terminal output
var outcomeColors = map[models.Outcome]*color.Color{
	models.OutcomePassed:  color.New(color.FgGreen),
	models.OutcomeSkipped: color.New(color.FgYellow),
	models.OutcomeFailed:  color.New(color.FgRed),
	models.OutcomeErrored: color.New(color.FgMagenta, color.Bold),
}

// colorOutcome renders an outcome label in its color
func colorOutcome(o models.Outcome) string {
	c, ok := outcomeColors[o]
	if !ok {
		return o.String()
	}

	return c.Sprint(o.String())
}

// writeCounts writes one line of outcome counts
func writeCounts(w io.Writer, indent string, counts rollup.Counts) {
	parts := []string{}
	for _, o := range models.Outcomes {
		parts = append(parts, fmt.Sprintf("%s=%d", colorOutcome(o), counts.Get(o)))
	}

	fmt.Fprintf(w, "%s%s\n", indent, strings.Join(parts, " "))
}

// writeRuns writes a runs report
func writeRuns(w io.Writer, report *reports.RunsReport) {
	fmt.Fprintf(w, "Runs on %s, team %s: %d\n", report.Date, report.Team, report.TotalRuns)
	writeCounts(w, "  ", report.AggregateData.StatusCounts)

	for _, run := range report.Runs {
		sub := run.Submission
		fmt.Fprintf(w, "\n%s [%s] %s %s\n", sub.Timestamp.Format("15:04:05"),
			colorOutcome(sub.Status()), sub.TestName, color.New(color.Faint).Sprintf("(%s)", sub.Team))

		sub.Each(func(o models.Occurrence) {
			indent := "    "
			name := o.Section
			if len(o.Subsection) > 0 {
				indent = "      "
				name = o.Subsection
			}

			fmt.Fprintf(w, "%s%s %s\n", indent, colorOutcome(o.Outcome), name)
		})
	}
}

// writeDashboard writes a dashboard
func writeDashboard(w io.Writer, dash *reports.Dashboard) {
	fmt.Fprintf(w, "Dashboard %s to %s\n", dash.Summary.DateRange.Start, dash.Summary.DateRange.End)
	fmt.Fprintf(w, "  %d submissions, %d teams, %d leads\n", dash.Summary.TotalSubmissions,
		dash.Summary.TotalTeams, dash.Summary.TotalTeamLeads)
	writeCounts(w, "  ", dash.StatusCounts)

	fmt.Fprintln(w, "\nBy date")
	for _, group := range dash.SubmissionsByDate {
		fmt.Fprintf(w, "  %s %d\n", group.Date, group.Count)
	}

	fmt.Fprintln(w, "\nTeams")
	for _, team := range dash.Teams {
		fmt.Fprintf(w, "  %s: %d leads, %d submissions\n", team.Name, team.LeadsCount,
			team.SubmissionsCount)
	}

	fmt.Fprintln(w, "\nRecent")
	for _, sub := range dash.RecentActivity {
		fmt.Fprintf(w, "  %s [%s] %s\n", sub.Timestamp.Format("2006-01-02 15:04"),
			colorOutcome(sub.Status()), sub.TestName)
	}
}

// writeStats writes period stats
func writeStats(w io.Writer, stats *reports.Stats) {
	fmt.Fprintf(w, "Stats for the last %s, %s to %s\n", stats.Period, stats.DateRange.Start,
		stats.DateRange.End)
	fmt.Fprintf(w, "  %d submissions, %d results\n", stats.Overall.TotalSubmissions,
		stats.Overall.TotalOccurrences)
	writeCounts(w, "  ", stats.Overall.StatusCounts)

	for _, team := range stats.ByTeam {
		fmt.Fprintf(w, "\n%s: %d submissions, %d results\n", team.Team, team.TotalSubmissions,
			team.TotalOccurrences)

		for _, o := range models.Outcomes {
			group, ok := team.StatusBreakdown[o]
			if !ok {
				continue
			}

			fmt.Fprintf(w, "  %s %d\n", colorOutcome(o), group.Count)
		}
	}
}

// findCoordinator returns the ID of the coordinator with email
func findCoordinator(ctx context.Context, users store.UserDirectory, email string) (primitive.ObjectID, error) {
	user, err := users.FindUserByEmail(ctx, email)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to find user \"%s\": %s", email, err.Error())
	}

	if user == nil || user.Role() != models.RoleCoordinator {
		return primitive.NilObjectID, fmt.Errorf("\"%s\" is not a coordinator", email)
	}

	return user.ID, nil
}

// reportFlags are shared by every report subcommand
type reportFlags struct {
	coordinator string
	asJSON      bool
}

// register adds the shared flags to cmd
func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.coordinator, "coordinator", "", "Email of the coordinator to report for")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the report as JSON")
	cmd.MarkFlagRequired("coordinator")
}

// runReport loads the app, resolves the coordinator, builds a report, and prints it
func (f reportFlags) runReport(cmd *cobra.Command, name string, build func(a *app, id primitive.ObjectID) (interface{}, error), write func(w io.Writer, report interface{})) error {
	a, err := newApp(cmd.Context(), rootLogger().GetChild("report "+name))
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := findCoordinator(a.Ctx, a.Users, f.coordinator)
	if err != nil {
		return err
	}

	report, err := build(a, id)
	if err != nil {
		return err
	}

	if f.asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	write(os.Stdout, report)

	return nil
}

// ReportCmd returns the report command
func ReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print coordinator reports",
	}

	// {{{1 runs
	var (
		runsFlags reportFlags
		date      string
		team      string
	)

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List a coordinator's runs on one date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runsFlags.runReport(cmd, "runs", func(a *app, id primitive.ObjectID) (interface{}, error) {
				return a.engine().RunsForDate(a.Ctx, id, date, team)
			}, func(w io.Writer, report interface{}) {
				writeRuns(w, report.(*reports.RunsReport))
			})
		},
	}
	runsFlags.register(runsCmd)
	runsCmd.Flags().StringVar(&date, "date", "", "Date to list, YYYY-MM-DD")
	runsCmd.Flags().StringVar(&team, "team", "", "Only list runs of this team")
	runsCmd.MarkFlagRequired("date")

	// {{{1 dashboard
	var (
		dashFlags reportFlags
		days      int
	)

	dashCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Summarize a coordinator's recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashFlags.runReport(cmd, "dashboard", func(a *app, id primitive.ObjectID) (interface{}, error) {
				window := days
				if window < 0 {
					window = a.Cfg.DashboardDays
				}

				return a.engine().DashboardSummary(a.Ctx, id, window)
			}, func(w io.Writer, report interface{}) {
				writeDashboard(w, report.(*reports.Dashboard))
			})
		},
	}
	dashFlags.register(dashCmd)
	dashCmd.Flags().IntVar(&days, "days", -1, "Window length in days, defaults to APP_DASHBOARD_DAYS")

	// {{{1 stats
	var (
		statsFlags reportFlags
		period     string
	)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Break down a coordinator's results by team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return statsFlags.runReport(cmd, "stats", func(a *app, id primitive.ObjectID) (interface{}, error) {
				return a.engine().PeriodStats(a.Ctx, id, period)
			}, func(w io.Writer, report interface{}) {
				writeStats(w, report.(*reports.Stats))
			})
		},
	}
	statsFlags.register(statsCmd)
	statsCmd.Flags().StringVar(&period, "period", "week", "One of week, month, quarter, year")

	cmd.AddCommand(runsCmd, dashCmd, statsCmd)

	return cmd
}
