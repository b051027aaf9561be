// Package store declares the persistence contracts the services depend on.
// sqlstore implements them on SQLite and pgstore on PostgreSQL.
package store

import (
	"context"
	"time"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/models"
)

// Lookups return errors wrapping models.ErrNotFound for missing rows and
// models.ErrConflict for unique violations.

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// TeamStore persists teams and memberships.
type TeamStore interface {
	// CreateTeam inserts the team and its owner membership atomically.
	CreateTeam(ctx context.Context, team models.Team, owner models.TeamMembership) error
	GetTeam(ctx context.Context, id string) (models.Team, error)
	GetMembership(ctx context.Context, teamID, userID string) (models.TeamMembership, error)
	AddMembership(ctx context.Context, m models.TeamMembership) error
	ListTeamsForUser(ctx context.Context, userID string) ([]models.TeamWithRole, error)
}

// ListFilter narrows a scoped listing.
type ListFilter struct {
	Category string
}

// ArticleStore persists articles.
type ArticleStore interface {
	CreateArticle(ctx context.Context, a models.Article) error
	GetArticle(ctx context.Context, id string) (models.Article, error)
	// UpdateArticle writes title, content, metadata and updatedAt.
	UpdateArticle(ctx context.Context, a models.Article) error
	// DeleteArticle succeeds when no row matches.
	DeleteArticle(ctx context.Context, id string) error
	// ListArticles returns the articles in scope, newest first.
	ListArticles(ctx context.Context, scope access.Scope, filter ListFilter) ([]models.Article, error)
	// GetArticlesByIDs returns the articles in scope whose ids are listed, in no particular order.
	GetArticlesByIDs(ctx context.Context, scope access.Scope, ids []string) ([]models.Article, error)
}

// ArticleSearcher runs the case-insensitive containment search.
type ArticleSearcher interface {
	// SearchArticles returns up to limit articles in scope whose title or
	// content contains needle, newest first.
	SearchArticles(ctx context.Context, scope access.Scope, needle string, limit int) ([]models.Article, error)
}

// ArticleVector is a stored embedding for one article.
type ArticleVector struct {
	ArticleID string
	Vector    []float32
}

// EmbeddingStore persists article embeddings.
type EmbeddingStore interface {
	// UpsertEmbedding stores the vector computed from the article as of
	// sourceUpdatedAt, its updatedAt when it was read.
	UpsertEmbedding(ctx context.Context, articleID string, vector []float32, sourceUpdatedAt time.Time) error
	DeleteEmbedding(ctx context.Context, articleID string) error
	// ListEmbeddings returns the vectors of the articles in scope.
	ListEmbeddings(ctx context.Context, scope access.Scope) ([]ArticleVector, error)
	// ListStaleArticles returns articles without an embedding or whose
	// embedding predates their last update.
	ListStaleArticles(ctx context.Context, limit int) ([]models.Article, error)
}

// EventStore persists audit events.
type EventStore interface {
	CreateEvent(ctx context.Context, e models.Event) error
	ListEventsForUser(ctx context.Context, userID string, limit int) ([]models.Event, error)
}

// Store is everything the application needs from a backend.
type Store interface {
	UserStore
	TeamStore
	ArticleStore
	ArticleSearcher
	EmbeddingStore
	EventStore
	Ping(ctx context.Context) error
	Close() error
}
