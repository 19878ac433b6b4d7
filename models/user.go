package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role identifies what a user may do
type Role string

// RoleContributor submits test runs for one team under one coordinator
const RoleContributor Role = "contributor"

// RoleCoordinator reads the runs of every contributor assigned to them
const RoleCoordinator Role = "coordinator"

// ParseRole converts a stored role label into a Role
func ParseRole(label string) (Role, error) {
	switch Role(label) {
	case RoleContributor, RoleCoordinator:
		return Role(label), nil
	default:
		return "", fmt.Errorf("unknown role \"%s\"", label)
	}
}

// Membership holds the role specific data of a user. It is either a Contributor or
// a Coordinator.
type Membership interface {
	// Role of users with this membership
	Role() Role

	isMembership()
}

// Contributor is the membership of a team lead
type Contributor struct {
	// Team is the free text team label
	Team string

	// ManagerID is the coordinator the lead reports to
	ManagerID primitive.ObjectID
}

// Role implements Membership
func (Contributor) Role() Role {
	return RoleContributor
}

func (Contributor) isMembership() {}

// Coordinator is the membership of a manager
type Coordinator struct{}

// Role implements Membership
func (Coordinator) Role() Role {
	return RoleCoordinator
}

func (Coordinator) isMembership() {}

// User is a person who can sign in
type User struct {
	// ID is the database identifier
	ID primitive.ObjectID `json:"id"`

	// Name to display
	Name string `json:"name"`

	// Email is unique among users, stored lowercase
	Email string `json:"email"`

	// Membership is the role specific data
	Membership Membership `json:"-"`

	// CreatedAt is when the user signed up
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the profile was last changed
	UpdatedAt time.Time `json:"updatedAt"`
}

// Role of the user, empty if no membership has been set
func (u User) Role() Role {
	if u.Membership == nil {
		return ""
	}

	return u.Membership.Role()
}

// Actor returns the authenticated identity of the user
func (u User) Actor() Actor {
	return Actor{
		ID:   u.ID,
		Role: u.Role(),
	}
}

// Team returns the team label of a contributor, empty for coordinators
func (u User) Team() string {
	if c, ok := u.Membership.(Contributor); ok {
		return c.Team
	}

	return ""
}

// Profile is the public JSON form of a user
type Profile struct {
	ID        primitive.ObjectID  `json:"id"`
	Role      Role                `json:"role"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Team      string              `json:"team,omitempty"`
	ManagerID *primitive.ObjectID `json:"managerId,omitempty"`
}

// Profile returns the public form of u
func (u User) Profile() Profile {
	p := Profile{
		ID:    u.ID,
		Role:  u.Role(),
		Name:  u.Name,
		Email: u.Email,
	}

	if c, ok := u.Membership.(Contributor); ok {
		managerID := c.ManagerID
		p.Team = c.Team
		p.ManagerID = &managerID
	}

	return p
}

// Actor is an authenticated caller
type Actor struct {
	// ID of the user
	ID primitive.ObjectID

	// Role of the user
	Role Role
}

// Require returns an AuthorizationError if the actor does not hold role
func (a Actor) Require(role Role, action string) error {
	if a.Role != role {
		return AuthorizationError{
			Action: action,
			Role:   a.Role,
		}
	}

	return nil
}
