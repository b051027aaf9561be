// Package search finds articles matching free text within an access scope.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/embedding"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/store"
)

const (
	// MaxResults caps every search response.
	MaxResults = 5
	// DefaultSimilarityThreshold is the cosine similarity a match must exceed.
	DefaultSimilarityThreshold = 0.7
)

// Mode selects a TextMatcher implementation.
type Mode string

const (
	ModeSubstring Mode = "substring"
	ModeEmbedding Mode = "embedding"
)

// TextMatcher is a search strategy. Match runs entirely inside scope: an
// article outside it must never be read, let alone returned.
type TextMatcher interface {
	Name() string
	// Match returns at most limit articles for a normalized query, best first.
	Match(ctx context.Context, scope access.Scope, query string, limit int) ([]models.Article, error)
	// Index makes an article searchable after it was created or changed.
	Index(ctx context.Context, article models.Article) error
	// Forget drops whatever Index stored for an article.
	Forget(ctx context.Context, articleID string) error
}

// NormalizeQuery trims the query and rejects it when nothing is left.
func NormalizeQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", fmt.Errorf("%w: search query (q) is required", models.ErrInvalidArgument)
	}
	return q, nil
}

// Backend is the storage the matchers need.
type Backend interface {
	store.ArticleSearcher
	VectorSource
}

// New builds the matcher for mode. The embedder is only used, and required,
// for ModeEmbedding.
func New(mode Mode, backend Backend, embedder embedding.Embedder, threshold float64) (TextMatcher, error) {
	switch mode {
	case ModeSubstring, "":
		return NewSubstringMatcher(backend), nil
	case ModeEmbedding:
		if embedder == nil {
			return nil, fmt.Errorf("embedding search requires an embedder")
		}
		m, err := NewEmbeddingMatcher(embedder, backend, threshold)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}
}
