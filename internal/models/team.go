package models

import "time"

// Role is a user's standing within a team.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Team is a named group whose members share articles.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TeamMembership grants a user visibility into a team's articles.
type TeamMembership struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// TeamWithRole pairs a team with the caller's role in it.
type TeamWithRole struct {
	Team Team `json:"team"`
	Role Role `json:"role"`
}
