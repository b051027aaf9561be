package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/teamkb-be/internal/models"
)

type fakeMembers struct {
	rows map[string]models.Role // teamID + "/" + userID
	err  error
}

func (f fakeMembers) GetMembership(_ context.Context, teamID, userID string) (models.TeamMembership, error) {
	if f.err != nil {
		return models.TeamMembership{}, f.err
	}
	role, ok := f.rows[teamID+"/"+userID]
	if !ok {
		return models.TeamMembership{}, models.ErrNotFound
	}
	return models.TeamMembership{TeamID: teamID, UserID: userID, Role: role}, nil
}

func newTestResolver() *Resolver {
	return NewResolver(fakeMembers{rows: map[string]models.Role{
		"eng/alice": models.RoleOwner,
		"eng/bob":   models.RoleMember,
	}})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver()
	alice := Caller{UserID: "alice"}
	carol := Caller{UserID: "carol"}

	tests := []struct {
		name    string
		caller  Caller
		teamID  string
		want    Scope
		wantErr error
	}{
		{name: "anonymous personal", caller: Anonymous(), want: None()},
		{name: "anonymous team", caller: Anonymous(), teamID: "eng", want: None()},
		{name: "personal", caller: alice, want: PersonalOf("alice")},
		{name: "member", caller: alice, teamID: "eng", want: TeamOf("eng")},
		{name: "non member", caller: carol, teamID: "eng", wantErr: models.ErrForbidden},
		{name: "unknown team", caller: alice, teamID: "ops", wantErr: models.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, tt.caller, tt.teamID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, got.IsNone())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveStorageFailureIsNotForbidden(t *testing.T) {
	boom := errors.New("disk on fire")
	r := NewResolver(fakeMembers{err: boom})

	_, err := r.Resolve(context.Background(), Caller{UserID: "alice"}, "eng")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, models.ErrForbidden)
}

func TestAuthorizeRead(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver()

	personal := models.Article{ID: "a1", AuthorID: "alice", Team: models.Personal()}
	shared := models.Article{ID: "a2", AuthorID: "alice", Team: models.SharedWith("eng")}

	require.NoError(t, r.AuthorizeRead(ctx, Caller{UserID: "alice"}, personal))
	require.ErrorIs(t, r.AuthorizeRead(ctx, Caller{UserID: "bob"}, personal), models.ErrForbidden)
	require.ErrorIs(t, r.AuthorizeRead(ctx, Anonymous(), personal), models.ErrUnauthenticated)

	require.NoError(t, r.AuthorizeRead(ctx, Caller{UserID: "bob"}, shared))
	require.ErrorIs(t, r.AuthorizeRead(ctx, Caller{UserID: "carol"}, shared), models.ErrForbidden)
	require.ErrorIs(t, r.AuthorizeRead(ctx, Anonymous(), shared), models.ErrUnauthenticated)
}

func TestScopeAllows(t *testing.T) {
	personal := models.Article{AuthorID: "alice", Team: models.Personal()}
	shared := models.Article{AuthorID: "alice", Team: models.SharedWith("eng")}

	assert.True(t, PersonalOf("alice").Allows(personal))
	assert.False(t, PersonalOf("bob").Allows(personal))
	// A team article never shows up in its author's personal scope.
	assert.False(t, PersonalOf("alice").Allows(shared))

	assert.True(t, TeamOf("eng").Allows(shared))
	assert.False(t, TeamOf("ops").Allows(shared))
	assert.False(t, TeamOf("eng").Allows(personal))

	assert.False(t, None().Allows(personal))
	assert.False(t, None().Allows(shared))
}
