package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/search"
	"github.com/isdelr/teamkb-be/internal/store"
)

// ArticleInput carries the writable fields of an article.
type ArticleInput struct {
	Title    string
	Content  string
	Metadata models.Metadata
	// TeamID is only read on create; empty means a personal article.
	TeamID string
}

func (in ArticleInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: title and content are required", models.ErrInvalidArgument)
	}
	return nil
}

// ArticleServiceProvider defines the interface for article services.
type ArticleServiceProvider interface {
	CreateArticle(ctx context.Context, caller access.Caller, in ArticleInput) (models.Article, error)
	ListArticles(ctx context.Context, caller access.Caller, teamID, category string) ([]models.Article, error)
	GetArticle(ctx context.Context, caller access.Caller, id string) (models.Article, error)
	UpdateArticle(ctx context.Context, caller access.Caller, id string, in ArticleInput) (models.Article, error)
	DeleteArticle(ctx context.Context, caller access.Caller, id string) error
	SearchArticles(ctx context.Context, caller access.Caller, query, teamID string) ([]models.Article, error)
	MatcherName() string
}

// ArticleService provides business logic for articles.
//
// Update and delete check only that the caller is signed in, not that the
// caller wrote the article or belongs to its team.
type ArticleService struct {
	articles store.ArticleStore
	resolver *access.Resolver
	matcher  search.TextMatcher
	events   EventServiceProvider
	now      func() time.Time
}

// NewArticleService creates a new ArticleService.
func NewArticleService(articles store.ArticleStore, resolver *access.Resolver, matcher search.TextMatcher, events EventServiceProvider) *ArticleService {
	return &ArticleService{
		articles: articles,
		resolver: resolver,
		matcher:  matcher,
		events:   events,
		now:      now,
	}
}

// MatcherName reports which search strategy is active.
func (s *ArticleService) MatcherName() string { return s.matcher.Name() }

// CreateArticle stores a new article written by the caller.
func (s *ArticleService) CreateArticle(ctx context.Context, caller access.Caller, in ArticleInput) (models.Article, error) {
	if !caller.Authenticated() {
		return models.Article{}, models.ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		return models.Article{}, err
	}

	team := models.Personal()
	if in.TeamID != "" {
		if err := s.resolver.RequireMember(ctx, caller, in.TeamID); err != nil {
			return models.Article{}, err
		}
		team = models.SharedWith(in.TeamID)
	}

	created := s.now()
	article := models.Article{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Content:   in.Content,
		Metadata:  in.Metadata,
		CreatedAt: created,
		UpdatedAt: created,
		AuthorID:  caller.UserID,
		Team:      team,
	}
	if err := s.articles.CreateArticle(ctx, article); err != nil {
		return models.Article{}, err
	}

	s.index(ctx, article)
	recordEvent(ctx, s.events, models.EventArticleCreate, caller.UserID,
		fmt.Sprintf("Created article %q", article.Title), article.Team, &article.ID)
	return article, nil
}

// ListArticles returns the articles visible in the requested scope, newest
// first. Anonymous callers get an empty list.
func (s *ArticleService) ListArticles(ctx context.Context, caller access.Caller, teamID, category string) ([]models.Article, error) {
	scope, err := s.resolver.Resolve(ctx, caller, teamID)
	if err != nil {
		return nil, err
	}
	if scope.IsNone() {
		return []models.Article{}, nil
	}

	articles, err := s.articles.ListArticles(ctx, scope, store.ListFilter{Category: strings.TrimSpace(category)})
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []models.Article{}
	}
	return articles, nil
}

// GetArticle loads an article and then checks the caller may read it, so an
// unknown id is reported as not found whoever asks.
func (s *ArticleService) GetArticle(ctx context.Context, caller access.Caller, id string) (models.Article, error) {
	article, err := s.articles.GetArticle(ctx, id)
	if err != nil {
		return models.Article{}, err
	}
	if err := s.resolver.AuthorizeRead(ctx, caller, article); err != nil {
		return models.Article{}, err
	}
	return article, nil
}

// UpdateArticle replaces title and content, and metadata when given.
// updatedAt always moves forward.
func (s *ArticleService) UpdateArticle(ctx context.Context, caller access.Caller, id string, in ArticleInput) (models.Article, error) {
	if !caller.Authenticated() {
		return models.Article{}, models.ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		return models.Article{}, err
	}

	article, err := s.articles.GetArticle(ctx, id)
	if err != nil {
		return models.Article{}, err
	}

	article.Title = in.Title
	article.Content = in.Content
	if in.Metadata != nil {
		article.Metadata = in.Metadata
	}
	updated := s.now()
	if !updated.After(article.UpdatedAt) {
		updated = article.UpdatedAt.Add(time.Microsecond)
	}
	article.UpdatedAt = updated

	if err := s.articles.UpdateArticle(ctx, article); err != nil {
		return models.Article{}, err
	}

	s.index(ctx, article)
	recordEvent(ctx, s.events, models.EventArticleUpdate, caller.UserID,
		fmt.Sprintf("Updated article %q", article.Title), article.Team, &article.ID)
	return article, nil
}

// DeleteArticle removes an article. Deleting an unknown id succeeds.
func (s *ArticleService) DeleteArticle(ctx context.Context, caller access.Caller, id string) error {
	if !caller.Authenticated() {
		return models.ErrUnauthenticated
	}

	article, err := s.articles.GetArticle(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.articles.DeleteArticle(ctx, id); err != nil {
		return err
	}
	if err := s.matcher.Forget(ctx, id); err != nil {
		log.Warn().Err(err).Str("article_id", id).Msg("Failed to drop search index entry")
	}
	recordEvent(ctx, s.events, models.EventArticleDelete, caller.UserID,
		fmt.Sprintf("Deleted article %q", article.Title), article.Team, &article.ID)
	return nil
}

// SearchArticles runs the configured matcher inside the requested scope. The
// query is validated before anything else, so a blank query is rejected even
// for anonymous callers.
func (s *ArticleService) SearchArticles(ctx context.Context, caller access.Caller, query, teamID string) ([]models.Article, error) {
	q, err := search.NormalizeQuery(query)
	if err != nil {
		return nil, err
	}
	scope, err := s.resolver.Resolve(ctx, caller, teamID)
	if err != nil {
		return nil, err
	}
	if scope.IsNone() {
		return []models.Article{}, nil
	}

	articles, err := s.matcher.Match(ctx, scope, q, search.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	if articles == nil {
		articles = []models.Article{}
	}
	return articles, nil
}

// index refreshes the search index for an article. A failure leaves the
// article stale until the reindex job picks it up.
func (s *ArticleService) index(ctx context.Context, article models.Article) {
	if err := s.matcher.Index(ctx, article); err != nil {
		log.Warn().Err(err).Str("article_id", article.ID).Str("matcher", s.matcher.Name()).Msg("Failed to index article")
	}
}
