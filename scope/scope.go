// Package scope decides which submissions an actor may see and which teams a
// coordinator has.
//
// Teams are not entities. A coordinator's teams are the distinct team labels of
// the contributors currently assigned to them. Submissions keep the team label
// they were created with, so after a contributor renames their team the old
// submissions are still grouped under the old label while Teams only reports the
// new one. This divergence is expected and is not reconciled.
package scope

import (
	"context"

	"github.com/kscout/runboard-api/models"
	"github.com/kscout/runboard-api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resolver resolves actor scopes and team membership
type Resolver struct {
	// Users is the user directory
	Users store.UserDirectory
}

// Scope returns the filter selecting every submission the actor may read.
// Contributors see their own submissions, coordinators see every submission
// recorded under them.
func (r Resolver) Scope(actor models.Actor) (store.SubmissionFilter, error) {
	id := actor.ID

	switch actor.Role {
	case models.RoleContributor:
		return store.SubmissionFilter{LeadID: &id}, nil
	case models.RoleCoordinator:
		return store.SubmissionFilter{ManagerID: &id}, nil
	default:
		return store.SubmissionFilter{}, models.AuthorizationError{
			Action: "read submissions",
			Role:   actor.Role,
		}
	}
}

// Teams returns the sorted distinct team labels of a coordinator's contributors
func (r Resolver) Teams(ctx context.Context, coordinatorID primitive.ObjectID) ([]string, error) {
	teams, err := r.Users.DistinctTeams(ctx, coordinatorID)
	if err != nil {
		return nil, models.RetrievalError{Op: "list teams", Err: err}
	}

	return teams, nil
}

// Lead is a contributor as listed in a team roster
type Lead struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// Roster is a team and the contributors currently in it
type Roster struct {
	Name  string `json:"name"`
	Leads []Lead `json:"leads"`
}

// Rosters returns each of the coordinator's teams with its contributors, in team
// order, along with the total number of contributors
func (r Resolver) Rosters(ctx context.Context, coordinatorID primitive.ObjectID) ([]Roster, int, error) {
	teams, err := r.Teams(ctx, coordinatorID)
	if err != nil {
		return nil, 0, err
	}

	leads, err := r.Users.FindContributors(ctx, coordinatorID)
	if err != nil {
		return nil, 0, models.RetrievalError{Op: "list team leads", Err: err}
	}

	rosters := make([]Roster, 0, len(teams))
	for _, team := range teams {
		roster := Roster{
			Name:  team,
			Leads: []Lead{},
		}

		for _, lead := range leads {
			if lead.Team() == team {
				roster.Leads = append(roster.Leads, Lead{
					ID:    lead.ID,
					Name:  lead.Name,
					Email: lead.Email,
				})
			}
		}

		rosters = append(rosters, roster)
	}

	return rosters, len(leads), nil
}
