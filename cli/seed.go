package cli

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/kscout/runboard-api/auth"
	"github.com/kscout/runboard-api/models"
	"github.com/kscout/runboard-api/store"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// fixtureUser is a user in a seed fixture
type fixtureUser struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`

	// Team of a contributor
	Team string `yaml:"team"`

	// Manager is the email of a contributor's coordinator
	Manager string `yaml:"manager"`
}

// fixtureSubsection is a subsection in a seed fixture
type fixtureSubsection struct {
	Name   string `yaml:"name"`
	Result string `yaml:"result"`
}

// fixtureSection is a section in a seed fixture
type fixtureSection struct {
	Name        string              `yaml:"name"`
	Result      string              `yaml:"result"`
	Subsections []fixtureSubsection `yaml:"subsections"`
}

// fixtureSubmission is a submission in a seed fixture
type fixtureSubmission struct {
	// Lead is the email of the owning contributor
	Lead string `yaml:"lead"`

	// Team overrides the lead's team when set
	Team string `yaml:"team"`

	TestName string `yaml:"testName"`

	// Timestamp is RFC 3339, defaults to now
	Timestamp string `yaml:"timestamp"`

	// DaysAgo places the run this many days before now when Timestamp is empty
	DaysAgo int `yaml:"daysAgo"`

	Sections []fixtureSection `yaml:"sections"`
}

// fixture is the seed file format
type fixture struct {
	Users       []fixtureUser       `yaml:"users"`
	Submissions []fixtureSubmission `yaml:"submissions"`
}

// loadFixture reads and strictly decodes a seed file
func loadFixture(path string) (*fixture, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file \"%s\": %s", path, err.Error())
	}

	var f fixture
	if err := yaml.UnmarshalStrict(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode seed file \"%s\" as YAML: %s", path, err.Error())
	}

	return &f, nil
}

// sections converts fixture sections into models
func (s fixtureSubmission) sections() ([]models.Section, error) {
	out := []models.Section{}

	for _, section := range s.Sections {
		result, err := models.ParseOutcome(section.Result)
		if err != nil {
			return nil, fmt.Errorf("section \"%s\": %s", section.Name, err.Error())
		}

		converted := models.Section{
			Name:        section.Name,
			Result:      result,
			Subsections: []models.Subsection{},
		}

		for _, sub := range section.Subsections {
			result, err := models.ParseOutcome(sub.Result)
			if err != nil {
				return nil, fmt.Errorf("subsection \"%s - %s\": %s", section.Name, sub.Name,
					err.Error())
			}

			converted.Subsections = append(converted.Subsections, models.Subsection{
				Name:   sub.Name,
				Result: result,
			})
		}

		out = append(out, converted)
	}

	return out, nil
}

// seedResult summarizes what seed wrote
type seedResult struct {
	Users       []models.User
	Submissions int
}

// seed inserts the fixture's users, coordinators first, then its submissions
func seed(ctx context.Context, f fixture, users store.UserDirectory, subs store.SubmissionStore, now time.Time) (*seedResult, error) {
	result := &seedResult{}
	byEmail := map[string]models.User{}

	// {{{1 Users
	insert := func(fu fixtureUser, membership models.Membership) error {
		user := models.User{
			Name:       fu.Name,
			Email:      fu.Email,
			Membership: membership,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := users.InsertUser(ctx, &user); err != nil {
			return fmt.Errorf("failed to insert user \"%s\": %s", fu.Email, err.Error())
		}

		byEmail[user.Email] = user
		result.Users = append(result.Users, user)

		return nil
	}

	for _, fu := range f.Users {
		role, err := models.ParseRole(fu.Role)
		if err != nil {
			return nil, fmt.Errorf("user \"%s\": %s", fu.Email, err.Error())
		}

		if role == models.RoleCoordinator {
			if err := insert(fu, models.Coordinator{}); err != nil {
				return nil, err
			}
		}
	}

	for _, fu := range f.Users {
		if role, _ := models.ParseRole(fu.Role); role != models.RoleContributor {
			continue
		}

		manager, err := users.FindUserByEmail(ctx, fu.Manager)
		if err != nil {
			return nil, fmt.Errorf("failed to find manager of \"%s\": %s", fu.Email, err.Error())
		} else if manager == nil || manager.Role() != models.RoleCoordinator {
			return nil, fmt.Errorf("manager \"%s\" of \"%s\" is not a coordinator",
				fu.Manager, fu.Email)
		}

		if err := insert(fu, models.Contributor{Team: fu.Team, ManagerID: manager.ID}); err != nil {
			return nil, err
		}
	}

	// {{{1 Submissions
	for i, fs := range f.Submissions {
		lead, err := users.FindUserByEmail(ctx, fs.Lead)
		if err != nil {
			return nil, fmt.Errorf("failed to find lead of submission %d: %s", i, err.Error())
		} else if lead == nil {
			return nil, fmt.Errorf("lead \"%s\" of submission %d does not exist", fs.Lead, i)
		}

		sections, err := fs.sections()
		if err != nil {
			return nil, fmt.Errorf("submission %d: %s", i, err.Error())
		}

		timestamp := now.AddDate(0, 0, -fs.DaysAgo)
		if len(fs.Timestamp) > 0 {
			timestamp, err = time.Parse(time.RFC3339, fs.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("submission %d timestamp: %s", i, err.Error())
			}
		}

		sub, err := models.NewSubmission(*lead, fs.Team, fs.TestName, sections, timestamp, now)
		if err != nil {
			return nil, fmt.Errorf("submission %d: %s", i, err.Error())
		}

		if err := subs.Insert(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to insert submission %d: %s", i, err.Error())
		}
		result.Submissions++
	}

	return result, nil
}

// printTokens writes a bearer token for each user
func printTokens(users []models.User, verifier auth.Verifier, now time.Time, ttl time.Duration) error {
	for _, user := range users {
		token, err := verifier.Issue(user, now, ttl)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s\n  %s\n", color.New(color.Bold).Sprint(user.Email),
			color.New(color.FgCyan).Sprintf("(%s)", user.Role()), token)
	}

	return nil
}

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	var (
		showTokens bool
		tokenTTL   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Load users and submissions from a YAML fixture",
		Long: `Insert the users and submissions described in a YAML fixture file.

Coordinators are inserted before contributors, contributors name their
coordinator by email. Submission statuses are always derived from their sections.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := rootLogger().GetChild("seed")

			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := loadFixture(args[0])
			if err != nil {
				return err
			}

			now := time.Now()
			result, err := seed(a.Ctx, *f, a.Users, a.Submissions, now)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "seeded %d users and %d submissions\n",
				len(result.Users), result.Submissions)

			if showTokens {
				return printTokens(result.Users, auth.Verifier{Secret: []byte(a.Cfg.JWTSecret)},
					now, tokenTTL)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showTokens, "tokens", false, "Print a bearer token for each seeded user")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "Lifetime of printed tokens")

	return cmd
}
