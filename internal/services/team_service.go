package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/store"
)

// TeamServiceProvider defines the interface for team services.
type TeamServiceProvider interface {
	CreateTeam(ctx context.Context, caller access.Caller, name string) (models.Team, error)
	ListTeams(ctx context.Context, caller access.Caller) ([]models.TeamWithRole, error)
	AddMember(ctx context.Context, caller access.Caller, teamID, username string) (models.TeamMembership, error)
}

// TeamService manages teams and their memberships.
type TeamService struct {
	teams  store.TeamStore
	users  store.UserStore
	events EventServiceProvider
	now    func() time.Time
}

// NewTeamService creates a new TeamService.
func NewTeamService(teams store.TeamStore, users store.UserStore, events EventServiceProvider) *TeamService {
	return &TeamService{teams: teams, users: users, events: events, now: now}
}

// CreateTeam creates a team owned by the caller. The owner membership is
// written in the same transaction as the team.
func (s *TeamService) CreateTeam(ctx context.Context, caller access.Caller, name string) (models.Team, error) {
	if !caller.Authenticated() {
		return models.Team{}, models.ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Team{}, fmt.Errorf("%w: team name is required", models.ErrInvalidArgument)
	}

	created := s.now()
	team := models.Team{
		ID:        uuid.New().String(),
		Name:      name,
		OwnerID:   caller.UserID,
		CreatedAt: created,
	}
	owner := models.TeamMembership{
		ID:        uuid.New().String(),
		TeamID:    team.ID,
		UserID:    caller.UserID,
		Role:      models.RoleOwner,
		CreatedAt: created,
	}
	if err := s.teams.CreateTeam(ctx, team, owner); err != nil {
		return models.Team{}, err
	}

	recordEvent(ctx, s.events, models.EventTeamCreate, caller.UserID,
		fmt.Sprintf("Created team %q", team.Name), models.SharedWith(team.ID), nil)
	return team, nil
}

// ListTeams returns the caller's teams with the caller's role in each.
func (s *TeamService) ListTeams(ctx context.Context, caller access.Caller) ([]models.TeamWithRole, error) {
	if !caller.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	teams, err := s.teams.ListTeamsForUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if teams == nil {
		teams = []models.TeamWithRole{}
	}
	return teams, nil
}

// AddMember adds the user with the given username to a team. Only the
// team's owner may do this.
func (s *TeamService) AddMember(ctx context.Context, caller access.Caller, teamID, username string) (models.TeamMembership, error) {
	if !caller.Authenticated() {
		return models.TeamMembership{}, models.ErrUnauthenticated
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return models.TeamMembership{}, fmt.Errorf("%w: username is required", models.ErrInvalidArgument)
	}

	// A missing team and a team the caller does not own look the same.
	own, err := s.teams.GetMembership(ctx, teamID, caller.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.TeamMembership{}, fmt.Errorf("%w: only the team owner can add members", models.ErrForbidden)
		}
		return models.TeamMembership{}, err
	}
	if own.Role != models.RoleOwner {
		return models.TeamMembership{}, fmt.Errorf("%w: only the team owner can add members", models.ErrForbidden)
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.TeamMembership{}, fmt.Errorf("%w: user %q not found", models.ErrNotFound, username)
		}
		return models.TeamMembership{}, err
	}

	membership := models.TeamMembership{
		ID:        uuid.New().String(),
		TeamID:    teamID,
		UserID:    user.ID,
		Role:      models.RoleMember,
		CreatedAt: s.now(),
	}
	if err := s.teams.AddMembership(ctx, membership); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return models.TeamMembership{}, fmt.Errorf("%w: %s is already a member", models.ErrConflict, username)
		}
		return models.TeamMembership{}, err
	}

	recordEvent(ctx, s.events, models.EventTeamMemberAdd, caller.UserID,
		fmt.Sprintf("Added %s to the team", username), models.SharedWith(teamID), nil)
	return membership, nil
}
