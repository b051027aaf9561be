package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/isdelr/teamkb-be/internal/models"
)

// MembershipReader looks up a single membership row. It returns an error
// wrapping models.ErrNotFound when the user is not in the team.
type MembershipReader interface {
	GetMembership(ctx context.Context, teamID, userID string) (models.TeamMembership, error)
}

// Resolver applies the visibility rules on behalf of the services.
type Resolver struct {
	members MembershipReader
}

// NewResolver creates a Resolver backed by the given membership store.
func NewResolver(members MembershipReader) *Resolver {
	return &Resolver{members: members}
}

// Resolve computes the scope for a list or search request. An
// unauthenticated caller always gets the empty scope; an empty teamID means
// the caller's personal articles; otherwise the caller must belong to the team.
func (r *Resolver) Resolve(ctx context.Context, caller Caller, teamID string) (Scope, error) {
	if !caller.Authenticated() {
		return None(), nil
	}
	if teamID == "" {
		return PersonalOf(caller.UserID), nil
	}
	if err := r.RequireMember(ctx, caller, teamID); err != nil {
		return None(), err
	}
	return TeamOf(teamID), nil
}

// RequireMember fails with models.ErrForbidden unless caller belongs to teamID.
func (r *Resolver) RequireMember(ctx context.Context, caller Caller, teamID string) error {
	if !caller.Authenticated() {
		return models.ErrUnauthenticated
	}
	_, err := r.members.GetMembership(ctx, teamID, caller.UserID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound):
		return fmt.Errorf("%w: not a member of team %s", models.ErrForbidden, teamID)
	default:
		return fmt.Errorf("check membership: %w", err)
	}
}

// AuthorizeRead decides whether caller may read an article that has already
// been loaded. Callers must load first so a missing id reports NotFound
// before any authorization outcome.
func (r *Resolver) AuthorizeRead(ctx context.Context, caller Caller, article models.Article) error {
	if !caller.Authenticated() {
		return models.ErrUnauthenticated
	}
	if teamID, ok := article.Team.TeamID(); ok {
		return r.RequireMember(ctx, caller, teamID)
	}
	if article.AuthorID != caller.UserID {
		return fmt.Errorf("%w: article %s belongs to another user", models.ErrForbidden, article.ID)
	}
	return nil
}
