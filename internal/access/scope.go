// Package access decides which articles a caller may read.
package access

import "github.com/isdelr/teamkb-be/internal/models"

// Caller is the identity behind a request. The zero value is an
// unauthenticated caller.
type Caller struct {
	UserID   string
	Username string
}

// Anonymous returns the unauthenticated caller.
func Anonymous() Caller { return Caller{} }

// Authenticated reports whether the caller carries a user identity.
func (c Caller) Authenticated() bool { return c.UserID != "" }

// Kind discriminates the variants of Scope.
type Kind int

const (
	// KindNone matches no article at all.
	KindNone Kind = iota
	// KindPersonal matches articles without a team written by one author.
	KindPersonal
	// KindTeam matches every article of one team regardless of author.
	KindTeam
)

func (k Kind) String() string {
	switch k {
	case KindPersonal:
		return "personal"
	case KindTeam:
		return "team"
	default:
		return "none"
	}
}

// Scope is the visibility predicate a list or search runs under. Stores turn
// it into a WHERE clause joined to the rest of the query with AND.
type Scope struct {
	kind     Kind
	authorID string
	teamID   string
}

// None returns the scope that matches nothing.
func None() Scope { return Scope{kind: KindNone} }

// PersonalOf returns the scope of authorID's personal articles.
func PersonalOf(authorID string) Scope {
	return Scope{kind: KindPersonal, authorID: authorID}
}

// TeamOf returns the scope of all articles shared with teamID.
func TeamOf(teamID string) Scope {
	return Scope{kind: KindTeam, teamID: teamID}
}

func (s Scope) Kind() Kind { return s.kind }

// AuthorID is set only for KindPersonal.
func (s Scope) AuthorID() string { return s.authorID }

// TeamID is set only for KindTeam.
func (s Scope) TeamID() string { return s.teamID }

// IsNone reports whether the scope can never match.
func (s Scope) IsNone() bool { return s.kind == KindNone }

// Allows evaluates the scope against a single article.
func (s Scope) Allows(a models.Article) bool {
	switch s.kind {
	case KindPersonal:
		return a.Team.IsPersonal() && a.AuthorID == s.authorID
	case KindTeam:
		id, ok := a.Team.TeamID()
		return ok && id == s.teamID
	default:
		return false
	}
}

func (s Scope) String() string {
	switch s.kind {
	case KindPersonal:
		return "personal:" + s.authorID
	case KindTeam:
		return "team:" + s.teamID
	default:
		return "none"
	}
}
