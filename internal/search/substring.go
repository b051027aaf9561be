package search

import (
	"context"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/store"
)

// SubstringMatcher matches articles whose title or content contains the
// query, ignoring case, newest first. The containment test and the scope
// predicate run in the same store query.
type SubstringMatcher struct {
	articles store.ArticleSearcher
}

// NewSubstringMatcher creates a SubstringMatcher.
func NewSubstringMatcher(articles store.ArticleSearcher) *SubstringMatcher {
	return &SubstringMatcher{articles: articles}
}

func (m *SubstringMatcher) Name() string { return string(ModeSubstring) }

// Match returns up to limit containing articles in scope.
func (m *SubstringMatcher) Match(ctx context.Context, scope access.Scope, query string, limit int) ([]models.Article, error) {
	if scope.IsNone() || limit <= 0 {
		return []models.Article{}, nil
	}
	return m.articles.SearchArticles(ctx, scope, query, limit)
}

// Index is a no-op; the store searches article text directly.
func (m *SubstringMatcher) Index(context.Context, models.Article) error { return nil }

// Forget is a no-op.
func (m *SubstringMatcher) Forget(context.Context, string) error { return nil }
